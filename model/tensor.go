package model

import "github.com/sbl8/dpuforge/core"

// Location is where a tensor's bytes live (§3).
type Location uint8

const (
	LocationInvalid Location = iota
	LocationProgrammableInput
	LocationProgrammableOutput
	LocationProfilingOutput
	LocationDRAMHeap
	LocationDRAMBSS
	LocationGraphFile
	LocationScratchpadNN
	LocationScratchpadUPA
	LocationCSRAM
	LocationAbsoluteAddr
)

func (l Location) String() string {
	switch l {
	case LocationProgrammableInput:
		return "ProgrammableInput"
	case LocationProgrammableOutput:
		return "ProgrammableOutput"
	case LocationProfilingOutput:
		return "ProfilingOutput"
	case LocationDRAMHeap:
		return "DRAM-Heap"
	case LocationDRAMBSS:
		return "DRAM-BSS"
	case LocationGraphFile:
		return "GraphFile"
	case LocationScratchpadNN:
		return "Scratchpad-NN"
	case LocationScratchpadUPA:
		return "Scratchpad-UPA"
	case LocationCSRAM:
		return "CSRAM"
	case LocationAbsoluteAddr:
		return "AbsoluteAddr"
	default:
		return "Invalid"
	}
}

// SplitStrategy names the policy mapping a tensor onto clusters (§3).
type SplitStrategy uint8

const (
	StrategyNone SplitStrategy = iota
	StrategyClustering
	StrategySplitOverH
	StrategySplitOverHOverlapped
	StrategySplitOverK
	StrategyHKSwitch
	StrategyClusteringAndSOH
)

func (s SplitStrategy) String() string {
	switch s {
	case StrategyClustering:
		return "Clustering"
	case StrategySplitOverH:
		return "SplitOverH"
	case StrategySplitOverHOverlapped:
		return "SplitOverHOverlapped"
	case StrategySplitOverK:
		return "SplitOverK"
	case StrategyHKSwitch:
		return "HKSwitch"
	case StrategyClusteringAndSOH:
		return "ClusteringAndSOH"
	default:
		return "None"
	}
}

// Broadcast reports whether every subtensor under s carries the
// parent's full shape rather than a disjoint slice (§3 invariant).
func (s SplitStrategy) Broadcast() bool {
	return s == StrategyClustering
}

// Sparsity names the pair of auxiliary tensors backing a sparse
// tensor's compressed storage.
type Sparsity struct {
	MapTensor            TensorHandle
	StorageElementTensor TensorHandle
}

// SubtensorSparsity carries the per-subtensor byte offsets into the
// parent's sparsity-map / storage-element tensors.
type SubtensorSparsity struct {
	MapOffset            int64
	StorageElementOffset int64
}

// Subtensor is one cluster-local view of a tensor.
type Subtensor struct {
	// Offset holds per-axis offsets into the parent tensor, reusing
	// core.Shape's W/H/C/N fields as offsets rather than extents.
	Offset core.Shape
	Shape  core.Shape

	Address  int64
	Locale   int // cluster index, or input/output slot, or blob index
	Sparsity *SubtensorSparsity

	// Quant overrides the parent's quant params for populated tensors
	// sliced per-channel (SplitOverK); nil means "use the parent's".
	Quant *core.QuantParams
}

// Tensor is a named, typed, shaped value owned by a Graph (§3).
type Tensor struct {
	Handle TensorHandle
	Name   string

	Shape core.Shape
	DType core.DType
	Quant *core.QuantParams

	Location  Location
	Populated bool // weights/constants XOR activations
	Sparsity  *Sparsity

	Strategy SplitStrategy
	// Subtensors is the producer-facing subtensor set. For
	// StrategyClusteringAndSOH this is the clustering (broadcast) set;
	// ConsumerSubtensors then holds the SplitOverH set used by the
	// downstream op, per the two-parallel-arrays design decision.
	Subtensors         []Subtensor
	ConsumerSubtensors []Subtensor

	Address        int64
	Allocators     []string
	CompressedSize int64 // 0 means "uncompressed, derive size from shape x dtype"
}

// ByteSize returns the uncompressed storage footprint of the tensor.
func (t *Tensor) ByteSize() int {
	return core.ByteSize(t.Shape, t.DType)
}

// StorageSize returns CompressedSize when set, else ByteSize.
func (t *Tensor) StorageSize() int64 {
	if t.CompressedSize > 0 {
		return t.CompressedSize
	}
	return int64(t.ByteSize())
}

// Validate checks the invariants of §3 that are local to one tensor
// (cross-tensor invariants like subtensor disjointness are checked by
// the split package, which has the strategy context to interpret
// them).
func (t *Tensor) Validate() error {
	const pass = "model.Tensor"
	if !t.Shape.Valid() {
		return NewError(ErrorKindArgument, pass, t.Name, "shape must have positive dims and a valid axis order", nil)
	}
	if !t.DType.Valid() {
		return NewError(ErrorKindArgument, pass, t.Name, "dtype must be valid", nil)
	}
	if t.Quant != nil && !t.Quant.Valid() {
		return NewError(ErrorKindArgument, pass, t.Name, "quant params must have consistent per-channel slice lengths", nil)
	}
	if t.Sparsity != nil && (!t.Sparsity.MapTensor.Valid() || !t.Sparsity.StorageElementTensor.Valid()) {
		return NewError(ErrorKindArgument, pass, t.Name, "sparse tensor must reference both a sparsity map and a storage-element table", nil)
	}
	return nil
}
