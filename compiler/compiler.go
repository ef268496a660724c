// Package compiler orchestrates the full pipeline: strategy solve,
// subtensor split, feasible-memory scheduling, and runtime
// serialisation (§4 "Pipeline"). It is the single entry point that
// wires the independently testable passes together the way the
// teacher's top-level compile path sequences its own optimisation
// passes.
package compiler

import (
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/schedule"
	"github.com/sbl8/dpuforge/serialize"
	"github.com/sbl8/dpuforge/split"
	"github.com/sbl8/dpuforge/strategy"
	"github.com/sbl8/dpuforge/target"
	"github.com/sbl8/dpuforge/workload"
	"go.uber.org/zap"
)

// Options bundles everything Compile needs beyond the graph itself.
type Options struct {
	Config     model.Config
	Descriptor target.Descriptor
	Registry   strategy.Registry

	// Logger receives every pass's structured log output for this
	// compile. A nil Logger becomes a no-op logger.
	Logger *zap.Logger
}

// Output is everything one Compile call produces: the solved strategy
// result (for callers that want to inspect the decisions made), the
// scheduled task list, and the final serialised artifact bytes.
type Output struct {
	Strategy *strategy.Result
	Tasks    []schedule.ScheduledTask
	Artifact []byte
}

// Compile runs the full pipeline over g in place: g's ops are mutated
// with their solved strategy (including the Spill flag strategy.Apply
// copies from the chosen candidate) and DPU workload counts, its
// tensors with their split strategy and subtensors, and its barriers
// with the counts serialize.Emit derives. The scheduler reads g and
// does not mutate it.
func Compile(g *model.Graph, opt Options) (*Output, error) {
	if err := opt.Config.Validate(); err != nil {
		return nil, err
	}
	if err := opt.Descriptor.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	sess := model.NewSession(opt.Config, opt.Logger)

	cost := target.NewCostModel(opt.Descriptor, opt.Config, g)
	solved, err := strategy.Solve(g, opt.Registry, cost, sess)
	if err != nil {
		return nil, err
	}
	if err := strategy.Apply(g, solved, sess); err != nil {
		return nil, err
	}
	if err := propagateStrategy(g); err != nil {
		return nil, err
	}

	if err := assignWorkloads(g, opt.Config.DPUsPerCluster()); err != nil {
		return nil, err
	}

	if err := splitAll(g, opt.Config.NumberOfClusters, sess); err != nil {
		return nil, err
	}

	sched := schedule.NewScheduler(g, opt.Config.CMX, sess)
	sched.Delay = target.Delays(g, opt.Config)
	sched.Priority = target.Priorities(g)
	tasks, err := sched.Run()
	if err != nil {
		return nil, err
	}

	artifact, err := serialize.Emit(g, tasks, opt.Descriptor, opt.Config, sess)
	if err != nil {
		return nil, err
	}

	return &Output{Strategy: solved, Tasks: tasks, Artifact: artifact}, nil
}

// propagateStrategy copies each op's solved Strategy (§4.3) onto its
// output tensors, the hand-off split.Split reads from since the
// subtensor splitter is tensor-strategy-driven rather than op-driven.
func propagateStrategy(g *model.Graph) error {
	for _, h := range g.Ops() {
		op, err := g.Op(h)
		if err != nil {
			return err
		}
		if op.Strategy == model.StrategyNone {
			continue
		}
		for _, out := range op.Outputs {
			t, err := g.Tensor(out)
			if err != nil {
				return err
			}
			t.Strategy = op.Strategy
			g.PutTensor(*t)
		}
	}
	return nil
}

// assignWorkloads runs the rectangle heuristic over every DPUTask's
// output to fill in DPUAttrs.Workloads (§4.1), which the scheduler's
// delay estimate and the serialiser's barrier table both depend on.
func assignWorkloads(g *model.Graph, dpusPerCluster int) error {
	if dpusPerCluster < 1 {
		dpusPerCluster = 1
	}
	for _, h := range g.Ops() {
		op, err := g.Op(h)
		if err != nil {
			return err
		}
		if op.Kind != model.OpKindDPUTask || len(op.Outputs) == 0 {
			continue
		}
		dpu, ok := op.Attrs.DPU()
		if !ok {
			continue
		}
		out, err := g.Tensor(op.Outputs[0])
		if err != nil {
			return err
		}
		boxes, err := workload.Rectangles(out.Shape.W, out.Shape.H, dpusPerCluster, workload.Options{})
		if err != nil {
			return err
		}
		dpu.Workloads = len(boxes)
		op.Attrs.SetDPU(dpu)
		g.PutOp(*op)
	}
	return nil
}

// splitAll materialises subtensors for every tensor carrying a split
// strategy (§4.2), propagating each producing op's kernel size as the
// SplitOverHOverlapped halo.
func splitAll(g *model.Graph, clusters int, sess *model.Session) error {
	if clusters < 1 {
		clusters = 1
	}
	for _, h := range g.Tensors() {
		t, err := g.Tensor(h)
		if err != nil {
			return err
		}
		if t.Strategy == model.StrategyNone {
			continue
		}
		opt := split.Options{HaloH: haloFor(g, h)}
		result, err := split.Split(t, clusters, opt, sess)
		if err != nil {
			return err
		}
		t.Subtensors = result.Producer
		t.ConsumerSubtensors = result.Consumer
		g.PutTensor(*t)
	}
	return nil
}

// haloFor returns the vertical halo a SplitOverHOverlapped split needs
// for tensor h, derived from its producing DPUTask's kernel height.
func haloFor(g *model.Graph, h model.TensorHandle) int {
	producer, ok := g.Producer(h)
	if !ok {
		return 0
	}
	op, err := g.Op(producer)
	if err != nil {
		return 0
	}
	dpu, ok := op.Attrs.DPU()
	if !ok || dpu.KernelH <= 0 {
		return 0
	}
	return dpu.KernelH - 1
}
