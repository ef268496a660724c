package strategy

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sbl8/dpuforge/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// nodeStride bounds the candidate count any single op may offer; node
// ids are packed as opIndex*nodeStride + candidateIndex so the layered
// graph needs no separate id-allocation table.
const nodeStride = int64(4096)

const (
	sourceID = int64(-1)
	sinkID   = int64(-2)
)

// Solve picks one candidate per op minimising total transition cost
// over the whole graph (§4.3). It builds a layered graph spanning
// every op in topological order — each layer is one op's candidate
// set — wired by CostModel-weighted edges along the graph's real
// producer/consumer dependencies, then solves it with a single
// Dijkstra pass from a synthetic source to a synthetic sink.
//
// Non-exclusive branch repair (§4.3.3) restricts every op touched by
// a branching section to Clustering-only candidates and keeps only
// the first (lowest-handle) incoming edge of each join op for the
// solve; the other incoming edges are reported in Result.RemovedEdges
// rather than mutated into the persistent graph, since nothing
// downstream needs them cut there.
func Solve(g *model.Graph, registry Registry, cost CostModel, sess *model.Session) (*Result, error) {
	log := sess.Logger()
	order, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return &Result{Choices: map[model.OpHandle]Choice{}}, nil
	}

	forcedSet, err := branchingSections(g, order)
	if err != nil {
		return nil, err
	}

	opIndex := make(map[model.OpHandle]int, len(order))
	for i, h := range order {
		opIndex[h] = i
	}

	candsByOp := make([][]Candidate, len(order))
	for i, h := range order {
		cands := registry[h]
		if forcedSet[h] {
			restricted := lo.Filter(cands, func(c Candidate, _ int) bool {
				return c.Strategy == model.StrategyClustering
			})
			if len(restricted) > 0 {
				cands = restricted
			}
		}
		if len(cands) == 0 {
			return nil, model.NewError(model.ErrorKindLogicError, "strategy.Solve", opName(g, h), "op has no candidate strategies", nil)
		}
		if len(cands) > int(nodeStride) {
			return nil, model.NewError(model.ErrorKindLogicError, "strategy.Solve", opName(g, h), "candidate set exceeds solver capacity", nil)
		}
		candsByOp[i] = cands
	}

	wg := simple.NewWeightedDirectedGraph(0, 0)
	nodeID := func(opIdx, candIdx int) int64 { return int64(opIdx)*nodeStride + int64(candIdx) }

	for i, cands := range candsByOp {
		for c := range cands {
			wg.AddNode(simple.Node(nodeID(i, c)))
		}
	}
	wg.AddNode(simple.Node(sourceID))
	wg.AddNode(simple.Node(sinkID))
	for i, h := range order {
		parents, err := g.Parents(h)
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			for c := range candsByOp[i] {
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(sourceID), simple.Node(nodeID(i, c)), 0))
			}
		}
		children, err := g.Children(h)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			for c := range candsByOp[i] {
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(nodeID(i, c)), simple.Node(sinkID), 0))
			}
		}
	}

	var removed []Edge
	for i, h := range order {
		op, err := g.Op(h)
		if err != nil {
			return nil, err
		}
		children, err := g.Children(h)
		if err != nil {
			return nil, err
		}
		sort.Slice(children, func(a, b int) bool { return children[a] < children[b] })

		for _, child := range children {
			if forcedSet[child] {
				parents, err := g.Parents(child)
				if err != nil {
					return nil, err
				}
				sort.Slice(parents, func(a, b int) bool { return parents[a] < parents[b] })
				if len(parents) > 0 && parents[0] != h {
					removed = append(removed, Edge{From: h, To: child})
					continue
				}
			}
			childOp, err := g.Op(child)
			if err != nil {
				return nil, err
			}
			cj := opIndex[child]
			for a, from := range candsByOp[i] {
				for b, to := range candsByOp[cj] {
					w := cost.TransitionCost(op, childOp, from, to)
					wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(nodeID(i, a)), simple.Node(nodeID(cj, b)), w))
				}
			}
		}
	}

	shortest := path.DijkstraFrom(simple.Node(sourceID), wg)
	pathNodes, _ := shortest.To(simple.Node(sinkID))
	if len(pathNodes) == 0 {
		return nil, model.NewError(model.ErrorKindLogicError, "strategy.Solve", "", "no feasible strategy path found", nil)
	}

	choices := make(map[model.OpHandle]Choice, len(order))
	for _, n := range pathNodes {
		id := n.ID()
		if id == sourceID || id == sinkID {
			continue
		}
		opIdx := int(id / nodeStride)
		candIdx := int(id % nodeStride)
		choices[order[opIdx]] = Choice{Candidate: candsByOp[opIdx][candIdx]}
	}

	derivePipelining(g, order, choices)

	for _, h := range order {
		c, ok := choices[h]
		if !ok {
			continue
		}
		log.Info("selected strategy",
			zap.String("pass", "strategy"),
			zap.String("op_name", opName(g, h)),
			zap.Uint32("handle", uint32(h)),
			zap.String("strategy", c.Candidate.Strategy.String()))
	}

	var forced []model.OpHandle
	for h := range forcedSet {
		forced = append(forced, h)
	}
	sort.Slice(forced, func(a, b int) bool { return forced[a] < forced[b] })

	return &Result{Choices: choices, ForcedClustering: forced, RemovedEdges: removed}, nil
}

// derivePipelining implements §4.3.6: an op pipelines its weights or
// activations only when its chosen producer spills and the op itself
// streams along the matching axis.
func derivePipelining(g *model.Graph, order []model.OpHandle, choices map[model.OpHandle]Choice) {
	for _, h := range order {
		c, ok := choices[h]
		if !ok {
			continue
		}
		parents, err := g.Parents(h)
		if err != nil || len(parents) == 0 {
			choices[h] = c
			continue
		}
		parentChoice, ok := choices[parents[0]]
		if !ok || !parentChoice.Candidate.Spill {
			choices[h] = c
			continue
		}
		switch {
		case c.Candidate.Streaming.K > 0:
			c.Pipeline = model.PipelineWeights
		case c.Candidate.Streaming.H > 0:
			c.Pipeline = model.PipelineActivations
		}
		choices[h] = c
	}
}

func opName(g *model.Graph, h model.OpHandle) string {
	if o, err := g.Op(h); err == nil {
		return o.Name
	}
	return fmt.Sprintf("handle(%d)", h)
}

// Apply writes a solved Result back onto the graph's ops, the hand-off
// point between the strategy manager and the scheduler/serialiser.
func Apply(g *model.Graph, res *Result, sess *model.Session) error {
	log := sess.Logger()
	for h, c := range res.Choices {
		op, err := g.Op(h)
		if err != nil {
			return err
		}
		op.Strategy = c.Candidate.Strategy
		op.Streaming = c.Candidate.Streaming
		op.Spill = c.Candidate.Spill
		op.Pipeline = c.Pipeline
		g.PutOp(*op)
		log.Debug("applied strategy",
			zap.String("pass", "strategy"),
			zap.String("op_name", op.Name),
			zap.Uint32("handle", uint32(h)))
	}
	return nil
}
