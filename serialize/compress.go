package serialize

import (
	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/target"
)

// compressionThreshold is the minimum uncompressed footprint (§4.5)
// below which HDE compression is skipped regardless of dtype.
const compressionThreshold = 4 * 1024

// shouldCompress reports whether t qualifies for HDE compression:
// populated, larger than 4KiB uncompressed, and not already FP16
// (§4.5: "populated tensors >4KiB and dtype != FP16 get
// HDE-compressed").
func shouldCompress(t *model.Tensor) bool {
	if !t.Populated || t.DType == core.DTypeFP16 {
		return false
	}
	return t.ByteSize() > compressionThreshold
}

// packU8 packs HDE-compressed bytes eight per 64-bit word, zero-padding
// to the next 8-byte boundary (core.WeightAlign/8) if data does not
// divide evenly; it does not pad to the full core.WeightAlign.
func packU8(data []byte) []byte {
	padded := core.PadToAlignment(data, core.WeightAlign/8)
	return padded
}

// CompressWeights HDE-compresses a populated tensor's raw bytes for the
// given target and returns the packed payload plus the compressed
// length to store in Tensor.CompressedSize. Callers hold the raw bytes
// outside the graph (model.Tensor carries shape/metadata only); this
// is invoked by whatever pass owns the weight blob once shouldCompress
// reports true for its tensor.
func CompressWeights(codec target.CodecDescriptor, raw []byte) (packed []byte, compressedLen int64) {
	hde := target.NewHDE(codec)
	enc := hde.Encode(raw)
	return packU8(enc), int64(len(enc))
}
