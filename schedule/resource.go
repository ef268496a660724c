package schedule

import (
	"sort"

	"github.com/sbl8/dpuforge/model"
)

// interval is a half-open byte range [Start, End) inside the
// scratchpad.
type interval struct {
	Start, End int64
}

func (iv interval) size() int64 { return iv.End - iv.Start }

// resourcePool implements Producer_Consumer_Contiguous_Resource
// (§4.4): a disjoint free-interval set plus the interval assigned to
// each tensor. The pool keeps no consumer ref-count; Scheduler.Run
// tracks outstanding consumers and releases an interval once its
// producer's count drops to zero.
type resourcePool struct {
	capacity int64
	free     []interval // sorted ascending by Start, pairwise disjoint

	assigned map[model.TensorHandle]interval
}

func newResourcePool(capacity int64) *resourcePool {
	return &resourcePool{
		capacity: capacity,
		free:     []interval{{0, capacity}},
		assigned: make(map[model.TensorHandle]interval),
	}
}

// fit reports whether every demand in sizes can be placed
// simultaneously, using first-fit over sizes sorted largest-first
// (greedy decreasing-size bin-packing per §4.4), without mutating
// pool state.
func (p *resourcePool) fit(handles []model.TensorHandle, sizes []int64) (map[model.TensorHandle]interval, bool) {
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return sizes[order[a]] > sizes[order[b]] })

	free := append([]interval(nil), p.free...)
	result := make(map[model.TensorHandle]interval, len(sizes))
	for _, idx := range order {
		sz := sizes[idx]
		if sz <= 0 {
			result[handles[idx]] = interval{}
			continue
		}
		placed := false
		for i, f := range free {
			if f.size() >= sz {
				result[handles[idx]] = interval{f.Start, f.Start + sz}
				if f.size() == sz {
					free = append(free[:i], free[i+1:]...)
				} else {
					free[i] = interval{f.Start + sz, f.End}
				}
				placed = true
				break
			}
		}
		if !placed {
			return nil, false
		}
	}
	return result, true
}

// assign carves iv out of the free list and records it against h.
func (p *resourcePool) assign(h model.TensorHandle, iv interval) {
	if iv.size() == 0 {
		return
	}
	p.assigned[h] = iv
	for i, f := range p.free {
		if f.Start <= iv.Start && iv.End <= f.End {
			var repl []interval
			if f.Start < iv.Start {
				repl = append(repl, interval{f.Start, iv.Start})
			}
			if iv.End < f.End {
				repl = append(repl, interval{iv.End, f.End})
			}
			tail := append([]interval{}, p.free[i+1:]...)
			p.free = append(append(p.free[:i], repl...), tail...)
			return
		}
	}
}

// release returns h's interval to the free list, merging adjacent
// free runs.
func (p *resourcePool) release(h model.TensorHandle) {
	iv, ok := p.assigned[h]
	if !ok {
		return
	}
	delete(p.assigned, h)
	if iv.size() == 0 {
		return
	}
	p.free = append(p.free, iv)
	sort.Slice(p.free, func(a, b int) bool { return p.free[a].Start < p.free[b].Start })
	merged := p.free[:0]
	for _, f := range p.free {
		if len(merged) > 0 && merged[len(merged)-1].End == f.Start {
			merged[len(merged)-1].End = f.End
		} else {
			merged = append(merged, f)
		}
	}
	p.free = merged
}

// used reports the sum of currently assigned interval sizes, the
// quantity the §8 universal invariant bounds by capacity.
func (p *resourcePool) used() int64 {
	var sum int64
	for _, iv := range p.assigned {
		sum += iv.size()
	}
	return sum
}
