package model

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph exclusively owns every Op and every Tensor for the entire
// compilation (§3 "Ownership/lifetime"). All cross-references from
// outside the graph use TensorHandle/OpHandle; nothing holds a raw
// pointer into these slices across a pass boundary.
type Graph struct {
	tensors []Tensor
	ops     []Op

	barriers map[uint32]*Barrier

	producer  map[TensorHandle]OpHandle
	consumers map[TensorHandle][]OpHandle
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		barriers:  make(map[uint32]*Barrier),
		producer:  make(map[TensorHandle]OpHandle),
		consumers: make(map[TensorHandle][]OpHandle),
	}
}

// PutTensor inserts or overwrites a tensor by its handle. The caller
// obtains handles from Session.NewTensorHandle.
func (g *Graph) PutTensor(t Tensor) {
	idx := int(t.Handle) - 1
	for idx >= len(g.tensors) {
		g.tensors = append(g.tensors, Tensor{})
	}
	g.tensors[idx] = t
}

// Tensor looks up a tensor by handle.
func (g *Graph) Tensor(h TensorHandle) (*Tensor, error) {
	idx := int(h) - 1
	if !h.Valid() || idx < 0 || idx >= len(g.tensors) || g.tensors[idx].Handle != h {
		return nil, NewError(ErrorKindIndexError, "model.Graph", "", fmt.Sprintf("unknown tensor handle %d", h), nil)
	}
	return &g.tensors[idx], nil
}

// Tensors returns every tensor handle currently registered.
func (g *Graph) Tensors() []TensorHandle {
	out := make([]TensorHandle, 0, len(g.tensors))
	for i := range g.tensors {
		if g.tensors[i].Handle.Valid() {
			out = append(out, g.tensors[i].Handle)
		}
	}
	return out
}

// PutOp inserts or overwrites an op by its handle and refreshes the
// producer/consumer index for its tensor references.
func (g *Graph) PutOp(o Op) {
	idx := int(o.Handle) - 1
	for idx >= len(g.ops) {
		g.ops = append(g.ops, Op{})
	}
	g.ops[idx] = o
	for _, out := range o.Outputs {
		g.producer[out] = o.Handle
	}
	for _, in := range o.Inputs {
		g.consumers[in] = append(g.consumers[in], o.Handle)
	}
}

// Op looks up an op by handle.
func (g *Graph) Op(h OpHandle) (*Op, error) {
	idx := int(h) - 1
	if !h.Valid() || idx < 0 || idx >= len(g.ops) || g.ops[idx].Handle != h {
		return nil, NewError(ErrorKindIndexError, "model.Graph", "", fmt.Sprintf("unknown op handle %d", h), nil)
	}
	return &g.ops[idx], nil
}

// Ops returns every op handle currently registered.
func (g *Graph) Ops() []OpHandle {
	out := make([]OpHandle, 0, len(g.ops))
	for i := range g.ops {
		if g.ops[i].Handle.Valid() {
			out = append(out, g.ops[i].Handle)
		}
	}
	return out
}

// PutBarrier inserts or overwrites a barrier by its index.
func (g *Graph) PutBarrier(b Barrier) {
	cp := b
	g.barriers[b.Index] = &cp
}

// Barrier looks up a barrier by index.
func (g *Graph) Barrier(index uint32) (*Barrier, bool) {
	b, ok := g.barriers[index]
	return b, ok
}

// Barriers returns every barrier as a cheap snapshot in map iteration
// order, not sorted; callers needing stable emission order sort on
// Index themselves.
func (g *Graph) Barriers() []*Barrier {
	out := make([]*Barrier, 0, len(g.barriers))
	for _, b := range g.barriers {
		out = append(out, b)
	}
	return out
}

// Producer returns the op that writes tensor h as an output, if any.
func (g *Graph) Producer(h TensorHandle) (OpHandle, bool) {
	op, ok := g.producer[h]
	return op, ok
}

// Consumers returns every op that reads tensor h as an input.
func (g *Graph) Consumers(h TensorHandle) []OpHandle {
	return g.consumers[h]
}

// Parents returns the distinct ops producing any of op's inputs.
func (g *Graph) Parents(op OpHandle) ([]OpHandle, error) {
	o, err := g.Op(op)
	if err != nil {
		return nil, err
	}
	seen := make(map[OpHandle]bool)
	var out []OpHandle
	for _, in := range o.Inputs {
		if p, ok := g.producer[in]; ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// Children returns the distinct ops consuming any of op's outputs.
func (g *Graph) Children(op OpHandle) ([]OpHandle, error) {
	o, err := g.Op(op)
	if err != nil {
		return nil, err
	}
	seen := make(map[OpHandle]bool)
	var out []OpHandle
	for _, out0 := range o.Outputs {
		for _, c := range g.consumers[out0] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Validate checks every cross-reference resolves to a live handle.
func (g *Graph) Validate() error {
	for _, h := range g.Tensors() {
		t, err := g.Tensor(h)
		if err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, h := range g.Ops() {
		o, err := g.Op(h)
		if err != nil {
			return err
		}
		if err := o.Validate(); err != nil {
			return err
		}
		for _, in := range o.Inputs {
			if _, err := g.Tensor(in); err != nil {
				return NewError(ErrorKindIndexError, "model.Graph", o.Name, "input tensor handle does not exist", err)
			}
		}
		for _, out := range o.Outputs {
			if _, err := g.Tensor(out); err != nil {
				return NewError(ErrorKindIndexError, "model.Graph", o.Name, "output tensor handle does not exist", err)
			}
		}
	}
	return nil
}

// TopoSort returns ops in a valid execution order (§4.3.1 "Topological
// sort, compute in-degrees"). It reports a Runtime error naming one of
// the cyclic ops when the graph is not a DAG.
func (g *Graph) TopoSort() ([]OpHandle, error) {
	dg := simple.NewDirectedGraph()
	for _, h := range g.Ops() {
		dg.AddNode(simple.Node(h))
	}
	for _, h := range g.Ops() {
		children, err := g.Children(h)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if dg.HasEdgeFromTo(int64(h), int64(c)) {
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(h), simple.Node(c)))
		}
	}
	sorted, err := topo.Sort(dg)
	if err != nil {
		offender := "unknown"
		if unorderable, ok := err.(topo.Unorderable); ok && len(unorderable) > 0 && len(unorderable[0]) > 0 {
			h := OpHandle(unorderable[0][0].ID())
			if o, e := g.Op(h); e == nil {
				offender = o.Name
			}
		}
		return nil, NewError(ErrorKindRuntime, "model.Graph", offender, "input graph contains a cycle", err)
	}
	out := make([]OpHandle, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, OpHandle(n.ID()))
	}
	return out, nil
}
