package serialize

import (
	"bytes"
)

// Parse reverses Emit, validating the magic, version and checksum
// before decoding the tensor, task and barrier tables.
func Parse(data []byte) (*Artifact, error) {
	r := bytes.NewReader(data)
	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	if header.Magic != Magic {
		return nil, errBadMagic
	}
	if header.Version != Version {
		return nil, errBadVersion
	}

	body := data[headerSize:]
	if crc32Checksum(body) != header.Checksum {
		return nil, errChecksum
	}

	br := bytes.NewReader(body)
	art := &Artifact{Header: header}

	for i := uint32(0); i < header.TensorCount; i++ {
		ref, err := ParseTensorRef(br)
		if err != nil {
			return nil, err
		}
		art.Tensors = append(art.Tensors, ref)
	}
	for i := uint32(0); i < header.TaskCount; i++ {
		rec, err := parseTaskRecord(br)
		if err != nil {
			return nil, err
		}
		art.Tasks = append(art.Tasks, rec)
	}
	for i := uint32(0); i < header.BarrierCount; i++ {
		b, err := parseBarrier(br)
		if err != nil {
			return nil, err
		}
		art.Barriers = append(art.Barriers, b)
	}
	return art, nil
}
