package workload

import (
	"container/heap"
	"sort"

	"github.com/chewxy/math32"
	"github.com/sbl8/dpuforge/core"
)

// Cost returns the multiplication count for one workload (§4.1 "Cost
// estimation per workload"): ceil(C/16)*ceil(H/mpeH)*ceil(W/mpeW).
func Cost(b Box, channels int) int {
	return core.Ceil(channels, 16) * core.Ceil(b.Height(), b.Mode.H) * core.Ceil(b.Width(), b.Mode.W)
}

func sumF32(v []float32) float32 {
	var s float32
	for _, x := range v {
		s += x
	}
	return s
}

func maxF32(v []float32) float32 {
	var m float32
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

// Balanced scores a workload list by negative packing efficiency: the
// closer sum/dpus sits to an integral number of rounds, the better
// (more negative) the score (§4.1: "Balanced").
func Balanced(costs []float32, dpus int) float32 {
	if dpus <= 0 {
		return 0
	}
	sum := sumF32(costs)
	ideal := math32.Ceil(sum / float32(dpus))
	if ideal == 0 {
		return 0
	}
	return -sum / (float32(dpus) * ideal)
}

// CriticalPath returns the single-DPU max workload cost when dpus==1,
// else sum/dpus + max (§4.1: "CriticalPath").
func CriticalPath(costs []float32, dpus int) float32 {
	if len(costs) == 0 {
		return 0
	}
	max := maxF32(costs)
	if dpus <= 1 {
		return max
	}
	return sumF32(costs)/float32(dpus) + max
}

// MinMax is the pair (sum/dpus, sum/dpus+max) returned by
// MinMaxWorkloads.
type MinMax struct {
	Balanced float32
	WithMax  float32
}

// MinMaxWorkloads scores a workload list as a (balanced, worst-case)
// pair (§4.1: "MinMaxWorkloads").
func MinMaxWorkloads(costs []float32, dpus int) MinMax {
	if dpus <= 0 {
		return MinMax{}
	}
	avg := sumF32(costs) / float32(dpus)
	return MinMax{Balanced: avg, WithMax: avg + maxF32(costs)}
}

// loadHeap is a min-heap of per-DPU accumulated loads.
type loadHeap []float32

func (h loadHeap) Len() int            { return len(h) }
func (h loadHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h loadHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *loadHeap) Push(x interface{}) { *h = append(*h, x.(float32)) }
func (h *loadHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Greedy assigns workloads onto dpus processors via LPT (longest
// processing time first) using a min-heap of current loads, and
// returns the resulting makespan (§4.1: "Greedy").
func Greedy(costs []float32, dpus int) float32 {
	if dpus <= 0 || len(costs) == 0 {
		return 0
	}
	sorted := append([]float32(nil), costs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	h := make(loadHeap, dpus)
	heap.Init(&h)
	for _, c := range sorted {
		load := heap.Pop(&h).(float32)
		heap.Push(&h, load+c)
	}
	var max float32
	for _, v := range h {
		if v > max {
			max = v
		}
	}
	return max
}
