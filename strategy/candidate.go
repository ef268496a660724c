// Package strategy implements the graph optimiser (§4.3): it chooses,
// per op, one strategy tuple (cluster split, streaming factors per
// axis, spilling flag, sparsity flags, pipelining) that minimises
// total cost over the whole graph.
package strategy

import "github.com/sbl8/dpuforge/model"

// Candidate is one strategy tuple a registry offers for an op.
type Candidate struct {
	Name     string
	Strategy model.SplitStrategy

	Streaming model.StreamingFactors
	Spill     bool

	SparsityIn       bool
	SparsityOut      bool
	SparsityWeights  bool
}

// Registry holds the candidate strategy set for every op, built by an
// upstream pass that knows each op's feasible strategies.
type Registry map[model.OpHandle][]Candidate

// CostModel computes the transition cost between a parent op's chosen
// candidate and a child op's candidate (§4.3.4): "parent-op x
// child-op x parent-strategy x child-strategy", accounting for DMA
// spills, weights re-layout, and pipelining compatibility. Concrete
// cost tables live in the target package.
type CostModel interface {
	TransitionCost(parent, child *model.Op, from, to Candidate) float64
}

// Choice is the solved strategy for one op plus its derived
// pipelining decision.
type Choice struct {
	Candidate Candidate
	Pipeline  model.PipelineMode
}

// Edge names a producer -> consumer op pair.
type Edge struct {
	From, To model.OpHandle
}

// Result is the outcome of Solve.
type Result struct {
	Choices map[model.OpHandle]Choice

	// ForcedClustering lists ops the non-exclusive branch repair
	// restricted to Clustering-only candidates (§4.3.3).
	ForcedClustering []model.OpHandle

	// RemovedEdges records the producer edges the repair step ignored
	// when building the layered graph; the persistent model.Graph is
	// never mutated, so there is nothing to literally revert, but
	// these are exactly the edges §4.3's "revert step" would restore
	// before emitting results.
	RemovedEdges []Edge
}
