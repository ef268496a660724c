package strategy

import (
	"testing"

	"github.com/sbl8/dpuforge/model"
)

// fixedCost penalises choosing a spilling candidate on either side of
// a transition, modelling the extra DMA traffic a spill forces.
type fixedCost struct{ spillPenalty float64 }

func (c fixedCost) TransitionCost(_, _ *model.Op, from, to Candidate) float64 {
	cost := 0.0
	if from.Spill {
		cost += c.spillPenalty
	}
	if to.Spill {
		cost += c.spillPenalty
	}
	return cost
}

func buildLinearGraph(t *testing.T) (*model.Graph, model.OpHandle, model.OpHandle, model.OpHandle) {
	t.Helper()
	g := model.NewGraph()
	var nextT model.TensorHandle = 1
	var nextO model.OpHandle = 1

	newTensor := func(name string) model.TensorHandle {
		h := nextT
		nextT++
		g.PutTensor(model.Tensor{Handle: h, Name: name})
		return h
	}
	t0 := newTensor("in")
	t1 := newTensor("t1")
	t2 := newTensor("t2")
	t3 := newTensor("out")

	newOp := func(name string, in, out model.TensorHandle) model.OpHandle {
		h := nextO
		nextO++
		g.PutOp(model.Op{Handle: h, Name: name, Kind: model.OpKindDPUTask, Inputs: []model.TensorHandle{in}, Outputs: []model.TensorHandle{out}})
		return h
	}
	op1 := newOp("op1", t0, t1)
	op2 := newOp("op2", t1, t2)
	op3 := newOp("op3", t2, t3)
	return g, op1, op2, op3
}

// Scenario 4 (§8): a linear 3-op graph where op2 would spill unless it
// streams over K; the solver must pick K-streaming on op2.
func TestSolveScenario4PicksKStreamingOverSpill(t *testing.T) {
	t.Parallel()
	g, op1, op2, op3 := buildLinearGraph(t)

	single := Candidate{Name: "clustering", Strategy: model.StrategyClustering}
	registry := Registry{
		op1: {single},
		op2: {
			{Name: "nostream", Strategy: model.StrategyClustering, Spill: true},
			{Name: "kstream", Strategy: model.StrategySplitOverK, Streaming: model.StreamingFactors{K: 4}, Spill: false},
		},
		op3: {single},
	}

	res, err := Solve(g, registry, fixedCost{spillPenalty: 100}, nil)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	choice, ok := res.Choices[op2]
	if !ok {
		t.Fatalf("Solve() has no choice for op2")
	}
	if choice.Candidate.Name != "kstream" {
		t.Errorf("op2 candidate = %q, want kstream", choice.Candidate.Name)
	}
	if choice.Candidate.Streaming.K != 4 {
		t.Errorf("op2 streaming.K = %d, want 4", choice.Candidate.Streaming.K)
	}
	if choice.Candidate.Spill {
		t.Error("op2 chosen candidate spills, want no spill")
	}
}

// When the chosen producer spills, a K-streaming consumer must derive
// PipelineWeights (§4.3.6).
func TestSolveDerivesPipelineWeightsAfterSpillingParent(t *testing.T) {
	t.Parallel()
	g, op1, op2, op3 := buildLinearGraph(t)

	registry := Registry{
		op1: {{Name: "spilling", Strategy: model.StrategyClustering, Spill: true}},
		op2: {{Name: "kstream", Strategy: model.StrategySplitOverK, Streaming: model.StreamingFactors{K: 2}}},
		op3: {{Name: "clustering", Strategy: model.StrategyClustering}},
	}

	res, err := Solve(g, registry, fixedCost{spillPenalty: 0}, nil)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if got := res.Choices[op2].Pipeline; got != model.PipelineWeights {
		t.Errorf("op2 pipeline = %v, want PipelineWeights", got)
	}
}

// A join op (multiple parents) gets restricted to Clustering-only
// candidates and has its non-primary incoming edges reported as
// removed, never mutated into the graph (§4.3.3).
func TestSolveForcesClusteringAtJoin(t *testing.T) {
	t.Parallel()
	g := model.NewGraph()
	tA := model.TensorHandle(1)
	tB := model.TensorHandle(2)
	tC := model.TensorHandle(3)
	tOut := model.TensorHandle(4)
	g.PutTensor(model.Tensor{Handle: tA, Name: "a"})
	g.PutTensor(model.Tensor{Handle: tB, Name: "b"})
	g.PutTensor(model.Tensor{Handle: tC, Name: "c"})
	g.PutTensor(model.Tensor{Handle: tOut, Name: "out"})

	opA := model.OpHandle(1)
	opB := model.OpHandle(2)
	opJoin := model.OpHandle(3)
	g.PutOp(model.Op{Handle: opA, Name: "a", Kind: model.OpKindInput, Outputs: []model.TensorHandle{tA}})
	g.PutOp(model.Op{Handle: opB, Name: "b", Kind: model.OpKindInput, Outputs: []model.TensorHandle{tB}})
	g.PutOp(model.Op{Handle: opJoin, Name: "join", Kind: model.OpKindDPUTask, Inputs: []model.TensorHandle{tA, tB}, Outputs: []model.TensorHandle{tOut}})

	registry := Registry{
		opA:    {{Name: "a", Strategy: model.StrategyClustering}},
		opB:    {{Name: "b", Strategy: model.StrategyClustering}},
		opJoin: {{Name: "join", Strategy: model.StrategyClustering}, {Name: "soh", Strategy: model.StrategySplitOverH}},
	}

	res, err := Solve(g, registry, fixedCost{spillPenalty: 0}, nil)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	found := false
	for _, h := range res.ForcedClustering {
		if h == opJoin {
			found = true
		}
	}
	if !found {
		t.Errorf("ForcedClustering = %v, want it to include the join op", res.ForcedClustering)
	}
	if res.Choices[opJoin].Candidate.Strategy != model.StrategyClustering {
		t.Errorf("join candidate = %+v, want Clustering", res.Choices[opJoin].Candidate)
	}
}
