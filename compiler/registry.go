package compiler

import (
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/strategy"
)

// DefaultRegistry builds a feasible candidate set per op purely from
// its OpKind (§4.3 takes "a registry of per-op candidate strategy
// sets" as an external input; this is the reference generator a
// front-end without its own strategy advisor falls back to). DPU
// compute ops get the full split-strategy menu so the solver has
// something to optimise over; everything else is restricted to a
// single Clustering candidate since DMA/UPA/layout ops do not choose
// how their tensors are partitioned across clusters.
func DefaultRegistry(g *model.Graph) strategy.Registry {
	reg := make(strategy.Registry)
	for _, h := range g.Ops() {
		op, err := g.Op(h)
		if err != nil {
			continue
		}
		reg[h] = candidatesFor(op.Kind)
	}
	return reg
}

func candidatesFor(kind model.OpKind) []strategy.Candidate {
	if kind != model.OpKindDPUTask {
		return []strategy.Candidate{
			{Name: "clustering", Strategy: model.StrategyClustering},
		}
	}
	return []strategy.Candidate{
		{Name: "clustering", Strategy: model.StrategyClustering},
		{Name: "soh", Strategy: model.StrategySplitOverH},
		{Name: "soh-overlapped", Strategy: model.StrategySplitOverHOverlapped},
		{Name: "sok", Strategy: model.StrategySplitOverK},
		{Name: "sok-spill", Strategy: model.StrategySplitOverK, Spill: true},
		{Name: "hkswitch", Strategy: model.StrategyHKSwitch},
	}
}
