package serialize

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sbl8/dpuforge/model"
)

const (
	// Magic identifies the artifact format ("DPUF" little-endian).
	Magic   uint32 = 0x46555044
	Version uint16 = 1
)

// Header is the fixed-size prologue of a serialised artifact.
type Header struct {
	Magic    uint32
	Version  uint16
	Device   uint8
	Revision uint8
	Clusters uint32

	TensorCount  uint32
	TaskCount    uint32
	BarrierCount uint32

	Checksum uint32
}

const headerSize = 4 + 2 + 1 + 1 + 4 + 4 + 4 + 4 + 4

func (h Header) emit(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.LittleEndian, h)
}

func parseHeader(r io.Reader) (Header, error) {
	var h Header
	err := binary.Read(r, binary.LittleEndian, &h)
	return h, err
}

// crc32Checksum is a bitwise IEEE CRC32, kept hand-rolled rather than
// pulled from hash/crc32 to match the rest of this artifact's
// from-scratch binary framing.
func crc32Checksum(data []byte) uint32 {
	const poly = 0xEDB88320
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

var errBadMagic = model.NewError(model.ErrorKindRuntime, "serialize", "", "artifact magic mismatch", nil)
var errBadVersion = model.NewError(model.ErrorKindRuntime, "serialize", "", "unsupported artifact version", nil)
var errChecksum = model.NewError(model.ErrorKindRuntime, "serialize", "", "artifact checksum mismatch", nil)
