// Package schedule implements the feasible memory scheduler (§4.4): a
// resource-aware list scheduler that orders tasks under a contiguous
// scratchpad budget, inserting spill-write/spill-read tasks when
// demand would otherwise overflow capacity. Per §5, the compiler is
// single-threaded and cooperative, so this is a plain deterministic
// loop over two container/heap priority queues rather than the
// goroutine/channel pipeline used elsewhere in the ecosystem.
package schedule

import (
	"container/heap"
	"sort"

	"github.com/sbl8/dpuforge/model"
	"go.uber.org/zap"
)

// TaskKind distinguishes the four task varieties §4.4 schedules.
type TaskKind uint8

const (
	TaskCompute TaskKind = iota
	TaskData
	TaskImplicitRead
	TaskImplicitWrite
)

func (k TaskKind) String() string {
	switch k {
	case TaskCompute:
		return "Compute"
	case TaskData:
		return "Data"
	case TaskImplicitRead:
		return "ImplicitRead"
	case TaskImplicitWrite:
		return "ImplicitWrite"
	default:
		return "Unknown"
	}
}

// ScheduledTask is one entry of the total order §4.4 produces. Tensor
// is zero for Compute/Data tasks. Op is zero for an implicit spill
// write; an implicit spill read carries the producer op whose output
// it reloads.
type ScheduledTask struct {
	Op        model.OpHandle
	Name      string
	Kind      TaskKind
	Tensor    model.TensorHandle
	StartTime int
	EndTime   int
}

type status uint8

const (
	statusPending status = iota
	statusActive
	statusSpilled
	statusConsumed
)

// Scheduler runs the feasible memory scheduler over a graph whose ops
// have already been strategy-resolved and split. Every op is treated
// as either a compute op (has parents) or a data op (no parents: a
// populated-tensor DMA); barrier and other zero-demand ops flow
// through with zero resource demand and the delay Delay gives them
// (1 when absent).
type Scheduler struct {
	g        *model.Graph
	capacity int64

	// Delay is the per-op execution latency; ops missing an entry
	// default to 1.
	Delay map[model.OpHandle]int

	// Priority breaks forced-eviction ties; lower evicts first. Ops
	// missing an entry default to 0.
	Priority map[model.OpHandle]int

	// AllowInPlace is the opt-in flag for in-place ops (§9 Open
	// Questions). Run does not read it and performs no ownership
	// transfer; every output gets its own interval.
	AllowInPlace bool

	log *zap.Logger
}

// NewScheduler returns a scheduler over g with the given scratchpad
// capacity in bytes.
func NewScheduler(g *model.Graph, capacity int64, sess *model.Session) *Scheduler {
	return &Scheduler{
		g:        g,
		capacity: capacity,
		Delay:    make(map[model.OpHandle]int),
		Priority: make(map[model.OpHandle]int),
		log:      sess.Logger(),
	}
}

func (s *Scheduler) delayOf(h model.OpHandle) int {
	if d, ok := s.Delay[h]; ok {
		return d
	}
	return 1
}

func (s *Scheduler) priorityOf(h model.OpHandle) int {
	return s.Priority[h]
}

func (s *Scheduler) demandOf(op *model.Op) (model.TensorHandle, int64) {
	if len(op.Outputs) == 0 {
		return 0, 0
	}
	out := op.Outputs[0]
	t, err := s.g.Tensor(out)
	if err != nil {
		return out, 0
	}
	return out, t.StorageSize()
}

// heapItem is the shared element type for both the start-time and
// completion-time min-heaps (§4.4 state variables).
type heapItem struct {
	time   int
	name   string
	op     model.OpHandle
	kind   TaskKind
	tensor model.TensorHandle
	delay  int
}

type timeHeap []heapItem

func (h timeHeap) Len() int { return len(h) }
func (h timeHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].name < h[j].name
}
func (h timeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x any)   { *h = append(*h, x.(heapItem)) }
func (h *timeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Run executes the main loop of §4.4 and returns the scheduled task
// list in emission order.
func (s *Scheduler) Run() ([]ScheduledTask, error) {
	ops := s.g.Ops()
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	opOf := make(map[model.OpHandle]*model.Op, len(ops))
	inDegree := make(map[model.OpHandle]int, len(ops))
	remainingConsumers := make(map[model.OpHandle]int, len(ops))

	for _, h := range ops {
		op, err := s.g.Op(h)
		if err != nil {
			return nil, err
		}
		opOf[h] = op
		parents, err := s.g.Parents(h)
		if err != nil {
			return nil, err
		}
		inDegree[h] = len(parents)
		children, err := s.g.Children(h)
		if err != nil {
			return nil, err
		}
		remainingConsumers[h] = len(children)

		if _, size := s.demandOf(op); size > s.capacity {
			return nil, model.NewError(model.ErrorKindRuntime, "schedule.Scheduler", op.Name, "resource demand exceeds scratchpad capacity for a single op", nil)
		}
	}

	if err := s.checkAcyclic(ops, inDegree, opOf); err != nil {
		return nil, err
	}

	pool := newResourcePool(s.capacity)
	outputOf := make(map[model.OpHandle]model.TensorHandle)
	outputStatus := make(map[model.OpHandle]status)
	started := make(map[model.OpHandle]bool)

	var ready []model.OpHandle
	for _, h := range ops {
		if inDegree[h] == 0 {
			ready = append(ready, h)
		}
	}

	var startHeap, completionHeap timeHeap
	heap.Init(&startHeap)
	heap.Init(&completionHeap)

	var out []ScheduledTask
	currentTime := 0
	remaining := len(ops)

	scheduleReady := func() bool {
		progressed := false
		sort.Slice(ready, func(i, j int) bool { return opOf[ready[i]].Name < opOf[ready[j]].Name })
		var next []model.OpHandle
		for _, h := range ready {
			if started[h] {
				continue
			}
			op := opOf[h]
			parents, err := s.g.Parents(h)
			if err != nil {
				next = append(next, h)
				continue
			}

			var handles []model.TensorHandle
			var sizes []int64
			var reactivate []model.OpHandle
			maxInputDelay := 0
			for _, p := range parents {
				if outputStatus[p] == statusSpilled {
					pOut, pSize := s.demandOf(opOf[p])
					handles = append(handles, pOut)
					sizes = append(sizes, pSize)
					reactivate = append(reactivate, p)
					if d := s.delayOf(p); d > maxInputDelay {
						maxInputDelay = d
					}
				}
			}
			ownOut, ownSize := s.demandOf(op)
			handles = append(handles, ownOut)
			sizes = append(sizes, ownSize)

			fits, ok := pool.fit(handles, sizes)
			if !ok {
				next = append(next, h)
				continue
			}

			for _, p := range reactivate {
				pOut, _ := s.demandOf(opOf[p])
				pool.assign(pOut, fits[pOut])
				heap.Push(&startHeap, heapItem{time: currentTime, name: "$read:" + opOf[p].Name, op: p, kind: TaskImplicitRead, tensor: pOut, delay: s.delayOf(p)})
			}
			if ownOut.Valid() {
				pool.assign(ownOut, fits[ownOut])
				outputOf[h] = ownOut
			}

			kind := TaskCompute
			if len(parents) == 0 {
				kind = TaskData
			}
			started[h] = true
			heap.Push(&startHeap, heapItem{time: currentTime + maxInputDelay, name: op.Name, op: h, kind: kind, delay: s.delayOf(h)})
			progressed = true
		}
		ready = next
		return progressed
	}

	advance := func() {
		if len(startHeap) > 0 && (len(completionHeap) == 0 || startHeap[0].time <= completionHeap[0].time) {
			it := heap.Pop(&startHeap).(heapItem)
			currentTime = it.time
			end := it.time + it.delay
			out = append(out, ScheduledTask{Op: it.op, Name: it.name, Kind: it.kind, Tensor: it.tensor, StartTime: it.time, EndTime: end})
			it.time = end
			heap.Push(&completionHeap, it)
			return
		}
		it := heap.Pop(&completionHeap).(heapItem)
		currentTime = it.time
		switch it.kind {
		case TaskImplicitRead:
			outputStatus[it.op] = statusActive
		case TaskImplicitWrite:
			// space already released at eviction time.
		default:
			outputStatus[it.op] = statusActive
			remaining--
			if pOut, ok := outputOf[it.op]; ok && remainingConsumers[it.op] <= 0 {
				pool.release(pOut)
				outputStatus[it.op] = statusConsumed
			}
			parents, _ := s.g.Parents(it.op)
			for _, p := range parents {
				remainingConsumers[p]--
				if remainingConsumers[p] <= 0 {
					if pOut, ok := outputOf[p]; ok && outputStatus[p] == statusActive {
						pool.release(pOut)
						outputStatus[p] = statusConsumed
					}
				}
			}
			children, _ := s.g.Children(it.op)
			for _, c := range children {
				inDegree[c]--
				if inDegree[c] == 0 {
					ready = append(ready, c)
				}
			}
		}
	}

	evict := func() error {
		type candidate struct {
			op           model.OpHandle
			activeInputs int
			priority     int
		}
		var candidates []candidate
		for h, st := range outputStatus {
			if st != statusActive {
				continue
			}
			if _, ok := outputOf[h]; !ok {
				continue
			}
			parents, err := s.g.Parents(h)
			if err != nil {
				return err
			}
			cnt := 0
			for _, p := range parents {
				if outputStatus[p] == statusActive {
					cnt++
				}
			}
			candidates = append(candidates, candidate{op: h, activeInputs: cnt, priority: s.priorityOf(h)})
		}
		if len(candidates) == 0 {
			return model.NewError(model.ErrorKindRuntime, "schedule.Scheduler", "", "unrecoverable resource demand: no evictable candidate", nil)
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].activeInputs != candidates[j].activeInputs {
				return candidates[i].activeInputs < candidates[j].activeInputs
			}
			if candidates[i].priority != candidates[j].priority {
				return candidates[i].priority < candidates[j].priority
			}
			return opOf[candidates[i].op].Name < opOf[candidates[j].op].Name
		})
		victim := candidates[0].op
		victimOut := outputOf[victim]
		pool.release(victimOut)
		outputStatus[victim] = statusSpilled
		heap.Push(&startHeap, heapItem{time: currentTime, name: "$write:" + opOf[victim].Name, kind: TaskImplicitWrite, tensor: victimOut, delay: 1})
		s.log.Info("forced eviction",
			zap.String("pass", "schedule"),
			zap.String("op_name", opOf[victim].Name),
			zap.Uint32("handle", uint32(victim)))
		return nil
	}

	evictionAttempts := 0
	evictionLimit := 4*len(ops) + 4

	for remaining > 0 {
		if scheduleReady() {
			continue
		}
		if len(startHeap) > 0 || len(completionHeap) > 0 {
			advance()
			continue
		}
		if len(ready) > 0 {
			evictionAttempts++
			if evictionAttempts > evictionLimit {
				return nil, model.NewError(model.ErrorKindRuntime, "schedule.Scheduler", opOf[ready[0]].Name, "unrecoverable resource demand: forced eviction could not free enough capacity", nil)
			}
			if err := evict(); err != nil {
				return nil, err
			}
			continue
		}
		return nil, model.NewError(model.ErrorKindLogicError, "schedule.Scheduler", "", "scheduler deadlocked with unresolved in-degree", nil)
	}

	s.log.Info("schedule complete",
		zap.String("pass", "schedule"),
		zap.Int("tasks", len(out)))

	return out, nil
}

// checkAcyclic runs a Kahn's-algorithm BFS over the op DAG (§4.4:
// "the scheduler runs a BFS cycle check on init").
func (s *Scheduler) checkAcyclic(ops []model.OpHandle, inDegree map[model.OpHandle]int, opOf map[model.OpHandle]*model.Op) error {
	degree := make(map[model.OpHandle]int, len(inDegree))
	for h, d := range inDegree {
		degree[h] = d
	}
	queue := make([]model.OpHandle, 0, len(ops))
	for _, h := range ops {
		if degree[h] == 0 {
			queue = append(queue, h)
		}
	}
	visited := 0
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		visited++
		children, err := s.g.Children(h)
		if err != nil {
			return err
		}
		for _, c := range children {
			degree[c]--
			if degree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if visited != len(ops) {
		for _, h := range ops {
			if degree[h] > 0 {
				return model.NewError(model.ErrorKindRuntime, "schedule.Scheduler", opOf[h].Name, "input graph contains a cycle", nil)
			}
		}
	}
	return nil
}
