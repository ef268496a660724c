package model

// TaskOp is the DPU sub-type carried by a DPUTask op (§3: "DPUTasks
// carry a sub-type").
type TaskOp uint8

const (
	TaskOpInvalid TaskOp = iota
	TaskOpConv
	TaskOpDepthwiseConv
	TaskOpMaxPool
	TaskOpAveragePool
	TaskOpEltwise
	TaskOpChannelMajorConvolution
	TaskOpHwConvert
	TaskOpIdentity
	TaskOpFullyConnected
)

func (t TaskOp) String() string {
	switch t {
	case TaskOpConv:
		return "Conv"
	case TaskOpDepthwiseConv:
		return "DepthwiseConv"
	case TaskOpMaxPool:
		return "MaxPool"
	case TaskOpAveragePool:
		return "AveragePool"
	case TaskOpEltwise:
		return "Eltwise"
	case TaskOpChannelMajorConvolution:
		return "ChannelMajorConvolution"
	case TaskOpHwConvert:
		return "HwConvert"
	case TaskOpIdentity:
		return "Identity"
	case TaskOpFullyConnected:
		return "FullyConnected"
	default:
		return "Invalid"
	}
}

// DMADirection is the locale-to-locale direction a DMATask moves data.
type DMADirection uint8

const (
	DMAInvalid DMADirection = iota
	DMADRAMToScratchpad
	DMAScratchpadToDRAM
	DMACSRAMToScratchpad
	DMAScratchpadToUPAScratchpad
	DMAHWToDRAM
)

func (d DMADirection) String() string {
	switch d {
	case DMADRAMToScratchpad:
		return "DRAM->Scratchpad"
	case DMAScratchpadToDRAM:
		return "Scratchpad->DRAM"
	case DMACSRAMToScratchpad:
		return "CSRAM->Scratchpad"
	case DMAScratchpadToUPAScratchpad:
		return "Scratchpad<->UPA-Scratchpad"
	case DMAHWToDRAM:
		return "HW->DRAM"
	default:
		return "Invalid"
	}
}

// DPUAttrs is the typed sub-attribute struct for a DPUTask.
type DPUAttrs struct {
	TaskOp               TaskOp
	KernelH, KernelW     int
	StrideH, StrideW     int
	PadTop, PadBottom    int
	PadLeft, PadRight    int
	DilationH, DilationW int

	// Workloads is the rectangle count the workload engine assigned to
	// this op's output (§4.1); the serialiser's barrier table uses it
	// for expanded_subtask_count (§4.5).
	Workloads int
}

// DMAAttrs is the typed sub-attribute struct for a DMATask.
type DMAAttrs struct {
	Direction   DMADirection
	Compression bool
}

const (
	attrKeyDPU = "dpu"
	attrKeyDMA = "dma"
)

// Attrs is the flat attribute bag every Op carries (Design Notes:
// "mutation via typed attribute dictionaries... back it by a typed
// union with runtime type checks at the boundaries, not at every
// access"). Well-known sub-structs live under fixed keys; callers
// fetch them through the typed accessors below rather than asserting
// the map value themselves.
type Attrs struct {
	values map[string]any
}

// NewAttrs returns an empty, ready-to-use attribute bag.
func NewAttrs() Attrs {
	return Attrs{values: make(map[string]any)}
}

func (a *Attrs) ensure() {
	if a.values == nil {
		a.values = make(map[string]any)
	}
}

// Set stores an arbitrary value under key, for downstream-pass
// extensibility (Design Notes: "operators must remain extensible by
// downstream passes").
func (a *Attrs) Set(key string, v any) {
	a.ensure()
	a.values[key] = v
}

// Get retrieves a value previously stored under key.
func (a *Attrs) Get(key string) (any, bool) {
	if a.values == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// SetDPU stores the DPU sub-attribute struct.
func (a *Attrs) SetDPU(d DPUAttrs) { a.Set(attrKeyDPU, d) }

// DPU fetches the DPU sub-attribute struct, type-asserting once at
// this boundary rather than per field access.
func (a *Attrs) DPU() (DPUAttrs, bool) {
	v, ok := a.Get(attrKeyDPU)
	if !ok {
		return DPUAttrs{}, false
	}
	d, ok := v.(DPUAttrs)
	return d, ok
}

// SetDMA stores the DMA sub-attribute struct.
func (a *Attrs) SetDMA(d DMAAttrs) { a.Set(attrKeyDMA, d) }

// DMA fetches the DMA sub-attribute struct.
func (a *Attrs) DMA() (DMAAttrs, bool) {
	v, ok := a.Get(attrKeyDMA)
	if !ok {
		return DMAAttrs{}, false
	}
	d, ok := v.(DMAAttrs)
	return d, ok
}
