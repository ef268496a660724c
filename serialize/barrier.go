package serialize

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/sbl8/dpuforge/model"
)

func emitBarrier(buf *bytes.Buffer, b model.Barrier) error {
	if err := binary.Write(buf, binary.LittleEndian, b.Index); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(b.ProducerCount)); err != nil {
		return err
	}
	return binary.Write(buf, binary.LittleEndian, int32(b.ConsumerCount))
}

func parseBarrier(r io.Reader) (model.Barrier, error) {
	var b model.Barrier
	if err := binary.Read(r, binary.LittleEndian, &b.Index); err != nil {
		return b, err
	}
	var producer, consumer int32
	if err := binary.Read(r, binary.LittleEndian, &producer); err != nil {
		return b, err
	}
	if err := binary.Read(r, binary.LittleEndian, &consumer); err != nil {
		return b, err
	}
	b.ProducerCount = int(producer)
	b.ConsumerCount = int(consumer)
	return b, nil
}

// expandedSubtaskCount returns how many physical subtasks op expands
// into once lowered to its target form (§4.5 barrier emission: DPU
// expansion is workloads*clusters for every split strategy branch; DMA
// expansion follows the broadcast/per-cluster/sparsity rule table; UPA
// is always 1).
func expandedSubtaskCount(g *model.Graph, op *model.Op, clusters int) (int, error) {
	switch op.Kind {
	case model.OpKindDPUTask:
		workloads := 1
		if dpu, ok := op.Attrs.DPU(); ok && dpu.Workloads > 0 {
			workloads = dpu.Workloads
		}
		if clusters < 1 {
			clusters = 1
		}
		return workloads * clusters, nil
	case model.OpKindDMATask:
		subtasks, err := ClassifyDMA(g, op, clusters)
		if err != nil {
			return 0, err
		}
		return len(subtasks), nil
	case model.OpKindUPATask:
		return 1, nil
	default:
		return 1, nil
	}
}

// BarrierCounts computes the producer/consumer expanded-subtask totals
// for barrier b, given the ops that wait on / update it (§4.5: barrier
// producer/consumer counts are the sum of expanded_subtask_count over
// the wait/update sets, less any empty-tensor DMAs).
func BarrierCounts(g *model.Graph, clusters int, producers, consumers []*model.Op) (int, int, error) {
	producerCount := 0
	for _, op := range producers {
		n, err := expandedSubtaskCount(g, op, clusters)
		if err != nil {
			return 0, 0, err
		}
		producerCount += n - emptyDMACount(g, op)
	}
	consumerCount := 0
	for _, op := range consumers {
		n, err := expandedSubtaskCount(g, op, clusters)
		if err != nil {
			return 0, 0, err
		}
		consumerCount += n - emptyDMACount(g, op)
	}
	return producerCount, consumerCount, nil
}

// emptyDMACount returns how many of op's output/input tensors carry no
// bytes, used to subtract empty-tensor DMAs from a barrier's counts.
func emptyDMACount(g *model.Graph, op *model.Op) int {
	if op.Kind != model.OpKindDMATask {
		return 0
	}
	n := 0
	for _, h := range op.Outputs {
		if emptyTensor(g, h) {
			n++
		}
	}
	for _, h := range op.Inputs {
		if emptyTensor(g, h) {
			n++
		}
	}
	return n
}

// BuildBarriers derives every op's Wait/Update barrier from the graph
// and stamps Graph.Barriers with the resulting producer/consumer
// counts, in ascending barrier-index order for determinism.
func BuildBarriers(g *model.Graph, clusters int) error {
	ops := g.Ops()
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	byBarrier := make(map[uint32]struct {
		producers []*model.Op
		consumers []*model.Op
	})

	for _, h := range ops {
		op, err := g.Op(h)
		if err != nil {
			return err
		}
		for _, idx := range op.Update {
			e := byBarrier[idx]
			e.producers = append(e.producers, op)
			byBarrier[idx] = e
		}
		for _, idx := range op.Wait {
			e := byBarrier[idx]
			e.consumers = append(e.consumers, op)
			byBarrier[idx] = e
		}
	}

	indices := make([]uint32, 0, len(byBarrier))
	for idx := range byBarrier {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		e := byBarrier[idx]
		producerCount, consumerCount, err := BarrierCounts(g, clusters, e.producers, e.consumers)
		if err != nil {
			return err
		}
		g.PutBarrier(model.Barrier{Index: idx, ProducerCount: producerCount, ConsumerCount: consumerCount})
	}
	return nil
}
