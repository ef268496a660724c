package serialize

import "github.com/sbl8/dpuforge/model"

// DMASubtask is one physical DMA descriptor the scheduler's single
// DMATask op expands into (§4.5 "DMA emission rule table").
type DMASubtask struct {
	// Clusters lists the locale indices this descriptor covers. A
	// broadcast descriptor spans every cluster in one entry; otherwise
	// each cluster gets its own single-entry descriptor.
	Clusters []int
	// Sparsity is 0 for a plain data move, 1 for a sparsity-map
	// auxiliary move, 2 for a storage-element-table auxiliary move.
	Sparsity int
}

// isBroadcastSource reports whether out's split strategy makes a
// single cluster-spanning DMA correct instead of one per cluster
// (§4.5: "tensor broadcasted, or SOK with unpopulated output, or
// Clustering with N=1").
func isBroadcastSource(out *model.Tensor, clusters int) bool {
	switch {
	case out.Strategy.Broadcast():
		return true
	case out.Strategy == model.StrategySplitOverK && !out.Populated:
		return true
	case out.Strategy == model.StrategyClustering && clusters == 1:
		return true
	default:
		return false
	}
}

// ClassifyDMA expands a DMATask op into its physical subtask
// descriptors: one broadcast descriptor, or one per cluster; for each
// sparse input, every one of those base descriptors is repeated once
// for the sparsity map and once for the storage-element table (§4.5).
func ClassifyDMA(g *model.Graph, op *model.Op, clusters int) ([]DMASubtask, error) {
	if clusters < 1 {
		clusters = 1
	}
	var out *model.Tensor
	if len(op.Outputs) > 0 {
		t, err := g.Tensor(op.Outputs[0])
		if err != nil {
			return nil, err
		}
		out = t
	}

	var subtasks []DMASubtask
	if out != nil && isBroadcastSource(out, clusters) {
		all := make([]int, clusters)
		for i := range all {
			all[i] = i
		}
		subtasks = append(subtasks, DMASubtask{Clusters: all})
	} else {
		for i := 0; i < clusters; i++ {
			subtasks = append(subtasks, DMASubtask{Clusters: []int{i}})
		}
	}

	base := append([]DMASubtask(nil), subtasks...)
	for _, in := range op.Inputs {
		t, err := g.Tensor(in)
		if err != nil {
			return nil, err
		}
		if t.Sparsity == nil {
			continue
		}
		for kind := 1; kind <= 2; kind++ {
			for _, s := range base {
				subtasks = append(subtasks, DMASubtask{Clusters: s.Clusters, Sparsity: kind})
			}
		}
	}
	return subtasks, nil
}

// emptyTensor reports whether h has zero storage footprint, in which
// case its DMA is dropped from both producer and consumer barrier
// counts (§4.5: "empty-tensor DMAs subtracted from both counts").
func emptyTensor(g *model.Graph, h model.TensorHandle) bool {
	t, err := g.Tensor(h)
	if err != nil {
		return false
	}
	return t.StorageSize() == 0
}
