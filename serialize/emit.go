package serialize

import (
	"bytes"
	"sort"

	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/schedule"
	"github.com/sbl8/dpuforge/target"
	"go.uber.org/zap"
)

// Artifact is the fully parsed form of a serialised graph: everything
// Parse recovers from an Emit'd byte stream.
type Artifact struct {
	Header   Header
	Tensors  []TensorRef
	Tasks    []TaskRecord
	Barriers []model.Barrier
}

// Emit flattens g and its schedule into the binary runtime artifact of
// §4.5. BuildBarriers is run first so the barrier table reflects the
// graph's current Wait/Update sets. Iteration is always by sorted
// handle so identical inputs produce identical bytes (§4.5
// "deterministic").
func Emit(g *model.Graph, tasks []schedule.ScheduledTask, descriptor target.Descriptor, cfg model.Config, sess *model.Session) ([]byte, error) {
	clusters := cfg.NumberOfClusters
	if clusters < 1 {
		clusters = 1
	}
	if err := BuildBarriers(g, clusters); err != nil {
		return nil, err
	}

	tensorHandles := g.Tensors()
	sort.Slice(tensorHandles, func(i, j int) bool { return tensorHandles[i] < tensorHandles[j] })

	var refs bytes.Buffer
	tensorCount := uint32(0)
	for i, h := range tensorHandles {
		t, err := g.Tensor(h)
		if err != nil {
			return nil, err
		}
		ref := tensorRefFrom(t, 0, int32(i))
		if err := ref.Emit(&refs); err != nil {
			return nil, err
		}
		tensorCount++
	}

	var taskBuf bytes.Buffer
	taskCount := uint32(0)
	for _, task := range tasks {
		rec, err := taskRecordFrom(g, task, clusters)
		if err != nil {
			return nil, err
		}
		if err := rec.emit(&taskBuf); err != nil {
			return nil, err
		}
		taskCount++
	}

	barriers := g.Barriers()
	sort.Slice(barriers, func(i, j int) bool { return barriers[i].Index < barriers[j].Index })
	var barrierBuf bytes.Buffer
	for _, b := range barriers {
		if err := emitBarrier(&barrierBuf, *b); err != nil {
			return nil, err
		}
	}

	var body bytes.Buffer
	body.Write(refs.Bytes())
	body.Write(taskBuf.Bytes())
	body.Write(barrierBuf.Bytes())

	header := Header{
		Magic:        Magic,
		Version:      Version,
		Device:       uint8(descriptor.Device),
		Revision:     uint8(descriptor.Revision),
		Clusters:     uint32(clusters),
		TensorCount:  tensorCount,
		TaskCount:    taskCount,
		BarrierCount: uint32(len(barriers)),
		Checksum:     crc32Checksum(body.Bytes()),
	}

	var out bytes.Buffer
	if err := header.emit(&out); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())

	sess.Logger().Info("artifact emitted",
		zap.String("pass", "serialize"),
		zap.Int("tensors", int(tensorCount)),
		zap.Int("tasks", int(taskCount)),
		zap.Int("barriers", len(barriers)),
		zap.Int("bytes", out.Len()))

	return out.Bytes(), nil
}
