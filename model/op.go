package model

// OpKind is the tagged variant of op the core recognises (§3). It
// replaces the deep ModelElement/LogSender inheritance chain with a
// flat enum plus dispatch tables keyed by this value.
type OpKind uint8

const (
	OpKindInvalid OpKind = iota
	OpKindDPUTask
	OpKindDMATask
	OpKindUPATask
	OpKindBarrierTask
	OpKindConcat
	OpKindSlice
	OpKindAlign
	OpKindCrop
	OpKindReshape
	OpKindPermute
	OpKindResample
	OpKindCopy
	OpKindInput
	OpKindOutput
	OpKindConstant
)

func (k OpKind) String() string {
	switch k {
	case OpKindDPUTask:
		return "DPUTask"
	case OpKindDMATask:
		return "DMATask"
	case OpKindUPATask:
		return "UPATask"
	case OpKindBarrierTask:
		return "BarrierTask"
	case OpKindConcat:
		return "Concat"
	case OpKindSlice:
		return "Slice"
	case OpKindAlign:
		return "Align"
	case OpKindCrop:
		return "Crop"
	case OpKindReshape:
		return "Reshape"
	case OpKindPermute:
		return "Permute"
	case OpKindResample:
		return "Resample"
	case OpKindCopy:
		return "Copy"
	case OpKindInput:
		return "Input"
	case OpKindOutput:
		return "Output"
	case OpKindConstant:
		return "Constant"
	default:
		return "Invalid"
	}
}

// Trait is one of the small set of type traits ops carry instead of
// interpreted semantics (§1 Non-goals: "a small set of type traits").
type Trait uint8

const (
	TraitExecutable Trait = 1 << iota
	TraitOptimisable
	TraitImplicit
	TraitHardwarisable
)

// Traits returns the traits implied by an op kind.
func (k OpKind) Traits() Trait {
	switch k {
	case OpKindDPUTask, OpKindUPATask:
		return TraitExecutable | TraitOptimisable | TraitHardwarisable
	case OpKindDMATask:
		return TraitExecutable | TraitHardwarisable
	case OpKindBarrierTask:
		return TraitExecutable
	case OpKindConcat, OpKindSlice, OpKindAlign, OpKindCrop, OpKindReshape, OpKindPermute, OpKindResample, OpKindCopy:
		return TraitImplicit
	default:
		return 0
	}
}

// Has reports whether t is set on the trait bitmask.
func (k OpKind) Has(t Trait) bool {
	return k.Traits()&t != 0
}

// StreamingFactors is the per-axis temporal tiling factor chosen by
// the strategy manager (§4.3 result, §GLOSSARY "Streaming").
type StreamingFactors struct {
	W, H, C, K, N int
}

// PipelineMode is the derived pipelining decision for an op (§4.3.6).
type PipelineMode uint8

const (
	PipelineNone PipelineMode = iota
	PipelineWeights
	PipelineActivations
)

func (p PipelineMode) String() string {
	switch p {
	case PipelineWeights:
		return "PipelineWeights"
	case PipelineActivations:
		return "PipelineActivations"
	default:
		return "PipelineNone"
	}
}

// Op is a named node with ordered input/output tensor handles, a
// typed attribute bag, and traits (§3).
type Op struct {
	Handle  OpHandle
	Name    string
	Kind    OpKind
	Inputs  []TensorHandle
	Outputs []TensorHandle
	Attrs   Attrs

	// Wait/Update are barrier indices this op waits on / signals.
	Wait   []uint32
	Update []uint32

	// Fields filled in by the strategy manager (§4.3 Outputs).
	Strategy          SplitStrategy
	OverwriteStrategy string // e.g. "ClusteringToSoH", set by split fix-ups
	Streaming         StreamingFactors
	Spill             bool
	Pipeline          PipelineMode

	// InPlace marks an op as in-place (§9 Open Questions). The
	// scheduler does not read it: no input interval is handed over to
	// the output, whatever AllowInPlace says.
	InPlace bool
}

func (o *Op) Validate() error {
	const pass = "model.Op"
	if o.Kind == OpKindInvalid {
		return NewError(ErrorKindOpError, pass, o.Name, "op kind must be set", nil)
	}
	if o.Kind == OpKindDPUTask {
		if _, ok := o.Attrs.DPU(); !ok {
			return NewError(ErrorKindOpError, pass, o.Name, "DPUTask requires DPU attrs", nil)
		}
	}
	if o.Kind == OpKindDMATask {
		if _, ok := o.Attrs.DMA(); !ok {
			return NewError(ErrorKindOpError, pass, o.Name, "DMATask requires DMA attrs", nil)
		}
	}
	return nil
}
