package serialize

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
)

// TensorRef is the on-wire description of one tensor (§4.5: "per-tensor
// reference emission"). Dims and Strides are stored most-significant
// axis first, the reverse of the internal W,H,C,N field order, with a
// trailing element size appended to Strides.
type TensorRef struct {
	Handle model.TensorHandle
	Name   string

	DType core.DType
	Dims  [4]int32
	// Strides holds one entry per Dims axis plus a trailing element
	// size in bytes (§4.5: "strides in the same reverse order with a
	// trailing element-size").
	Strides [5]int32

	Locale      model.Location
	LocaleIndex int32
	DataIndex   int32

	Populated      bool
	CompressedSize int64

	Sparse               bool
	SparsityIndex        int32
	StorageElementIndex  int32
	SparsityMapOffset    int64
	StorageElementOffset int64

	HasQuant   bool
	ZeroPoint  int32
	Multiplier uint16
	// MultiplierUniform is false when the tensor's multiplier varies by
	// channel, in which case Multiplier carries only channel 0's value
	// and a downstream per-channel table is expected alongside it.
	MultiplierUniform bool
	Shift             uint8
	PostShift         int8
}

// tensorRefFrom builds the wire record for tensor t, writing the given
// localeIndex and dataIndex unchanged; it does not derive a cluster,
// slot or blob index from t itself.
func tensorRefFrom(t *model.Tensor, localeIndex, dataIndex int32) TensorRef {
	ref := TensorRef{
		Handle:         t.Handle,
		Name:           t.Name,
		DType:          t.DType,
		Locale:         t.Location,
		LocaleIndex:    localeIndex,
		DataIndex:      dataIndex,
		Populated:      t.Populated,
		CompressedSize: t.CompressedSize,
	}

	order := t.Shape.Order
	if len(order) != 4 {
		order = "NCHW"
	}
	dims := make([]int, 4)
	for i := 0; i < 4; i++ {
		dims[i] = dimOf(t.Shape, order[i])
	}
	strides := t.Shape.Strides()
	for i := 0; i < 4; i++ {
		ref.Dims[i] = int32(dims[i])
		ref.Strides[i] = int32(strides[i])
	}
	ref.Strides[4] = int32(t.DType.Bytes())

	if t.Sparsity != nil {
		ref.Sparse = true
		ref.SparsityIndex = int32(t.Sparsity.MapTensor)
		ref.StorageElementIndex = int32(t.Sparsity.StorageElementTensor)
	}

	if t.Quant != nil {
		ref.HasQuant = true
		if len(t.Quant.ZeroPoint) > 0 {
			ref.ZeroPoint = t.Quant.ZeroPoint[0]
		}
		if m, uniform := t.Quant.UniformMultiplier(); uniform {
			ref.Multiplier = m
			ref.MultiplierUniform = true
		} else if len(t.Quant.Multiplier) > 0 {
			ref.Multiplier = t.Quant.Multiplier[0]
		}
		if len(t.Quant.Shift) > 0 {
			ref.Shift = t.Quant.Shift[0]
		}
		ref.PostShift = t.Quant.PostShift
	}

	return ref
}

func dimOf(s core.Shape, axis byte) int {
	switch axis {
	case 'N':
		return s.N
	case 'C':
		return s.C
	case 'H':
		return s.H
	case 'W':
		return s.W
	default:
		return 0
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeBool(buf *bytes.Buffer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return buf.WriteByte(b)
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// Emit serialises ref onto buf.
func (ref TensorRef) Emit(buf *bytes.Buffer) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(ref.Handle)); err != nil {
		return err
	}
	if err := writeString(buf, ref.Name); err != nil {
		return err
	}
	if err := buf.WriteByte(byte(ref.DType)); err != nil {
		return err
	}
	for _, d := range ref.Dims {
		if err := binary.Write(buf, binary.LittleEndian, d); err != nil {
			return err
		}
	}
	for _, s := range ref.Strides {
		if err := binary.Write(buf, binary.LittleEndian, s); err != nil {
			return err
		}
	}
	if err := buf.WriteByte(byte(ref.Locale)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, ref.LocaleIndex); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, ref.DataIndex); err != nil {
		return err
	}
	if err := writeBool(buf, ref.Populated); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, ref.CompressedSize); err != nil {
		return err
	}

	if err := writeBool(buf, ref.Sparse); err != nil {
		return err
	}
	if ref.Sparse {
		if err := binary.Write(buf, binary.LittleEndian, ref.SparsityIndex); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, ref.StorageElementIndex); err != nil {
			return err
		}
	}

	if err := writeBool(buf, ref.HasQuant); err != nil {
		return err
	}
	if ref.HasQuant {
		if err := binary.Write(buf, binary.LittleEndian, ref.ZeroPoint); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, ref.Multiplier); err != nil {
			return err
		}
		if err := writeBool(buf, ref.MultiplierUniform); err != nil {
			return err
		}
		if err := buf.WriteByte(ref.Shift); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, ref.PostShift); err != nil {
			return err
		}
	}
	return nil
}

// ParseTensorRef reads one TensorRef back from r.
func ParseTensorRef(r io.Reader) (TensorRef, error) {
	var ref TensorRef
	var handle uint32
	if err := binary.Read(r, binary.LittleEndian, &handle); err != nil {
		return ref, err
	}
	ref.Handle = model.TensorHandle(handle)

	name, err := readString(r)
	if err != nil {
		return ref, err
	}
	ref.Name = name

	var dtype [1]byte
	if _, err := io.ReadFull(r, dtype[:]); err != nil {
		return ref, err
	}
	ref.DType = core.DType(dtype[0])

	for i := range ref.Dims {
		if err := binary.Read(r, binary.LittleEndian, &ref.Dims[i]); err != nil {
			return ref, err
		}
	}
	for i := range ref.Strides {
		if err := binary.Read(r, binary.LittleEndian, &ref.Strides[i]); err != nil {
			return ref, err
		}
	}

	var locale [1]byte
	if _, err := io.ReadFull(r, locale[:]); err != nil {
		return ref, err
	}
	ref.Locale = model.Location(locale[0])

	if err := binary.Read(r, binary.LittleEndian, &ref.LocaleIndex); err != nil {
		return ref, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ref.DataIndex); err != nil {
		return ref, err
	}
	populated, err := readBool(r)
	if err != nil {
		return ref, err
	}
	ref.Populated = populated
	if err := binary.Read(r, binary.LittleEndian, &ref.CompressedSize); err != nil {
		return ref, err
	}

	sparse, err := readBool(r)
	if err != nil {
		return ref, err
	}
	ref.Sparse = sparse
	if ref.Sparse {
		if err := binary.Read(r, binary.LittleEndian, &ref.SparsityIndex); err != nil {
			return ref, err
		}
		if err := binary.Read(r, binary.LittleEndian, &ref.StorageElementIndex); err != nil {
			return ref, err
		}
	}

	hasQuant, err := readBool(r)
	if err != nil {
		return ref, err
	}
	ref.HasQuant = hasQuant
	if ref.HasQuant {
		if err := binary.Read(r, binary.LittleEndian, &ref.ZeroPoint); err != nil {
			return ref, err
		}
		if err := binary.Read(r, binary.LittleEndian, &ref.Multiplier); err != nil {
			return ref, err
		}
		uniform, err := readBool(r)
		if err != nil {
			return ref, err
		}
		ref.MultiplierUniform = uniform
		var shift [1]byte
		if _, err := io.ReadFull(r, shift[:]); err != nil {
			return ref, err
		}
		ref.Shift = shift[0]
		if err := binary.Read(r, binary.LittleEndian, &ref.PostShift); err != nil {
			return ref, err
		}
	}
	return ref, nil
}
