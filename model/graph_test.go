package model

import (
	"errors"
	"testing"

	"github.com/sbl8/dpuforge/core"
)

func newTestTensor(h TensorHandle, name string) Tensor {
	return Tensor{
		Handle: h,
		Name:   name,
		Shape:  core.NewShape(1, 1, 4, 4),
		DType:  core.DTypeFP32,
	}
}

func TestGraphTopoSortLinear(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	tA, tB, tC := TensorHandle(1), TensorHandle(2), TensorHandle(3)
	g.PutTensor(newTestTensor(tA, "a"))
	g.PutTensor(newTestTensor(tB, "b"))
	g.PutTensor(newTestTensor(tC, "c"))

	op1 := Op{Handle: 1, Name: "op1", Kind: OpKindCopy, Outputs: []TensorHandle{tA}}
	op2 := Op{Handle: 2, Name: "op2", Kind: OpKindCopy, Inputs: []TensorHandle{tA}, Outputs: []TensorHandle{tB}}
	op3 := Op{Handle: 3, Name: "op3", Kind: OpKindCopy, Inputs: []TensorHandle{tB}, Outputs: []TensorHandle{tC}}
	g.PutOp(op3)
	g.PutOp(op1)
	g.PutOp(op2)

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	pos := make(map[OpHandle]int)
	for i, h := range order {
		pos[h] = i
	}
	if pos[1] >= pos[2] || pos[2] >= pos[3] {
		t.Errorf("TopoSort() order %v does not respect op1 -> op2 -> op3", order)
	}
}

func TestGraphTopoSortCycle(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	tA, tB := TensorHandle(1), TensorHandle(2)
	g.PutTensor(newTestTensor(tA, "a"))
	g.PutTensor(newTestTensor(tB, "b"))

	op1 := Op{Handle: 1, Name: "op1", Kind: OpKindCopy, Inputs: []TensorHandle{tB}, Outputs: []TensorHandle{tA}}
	op2 := Op{Handle: 2, Name: "op2", Kind: OpKindCopy, Inputs: []TensorHandle{tA}, Outputs: []TensorHandle{tB}}
	g.PutOp(op1)
	g.PutOp(op2)

	_, err := g.TopoSort()
	if err == nil {
		t.Fatal("TopoSort() on cyclic graph returned nil error")
	}
	if !errors.Is(err, ErrRuntime) {
		t.Errorf("TopoSort() error kind = %v, want Runtime", err)
	}
}

func TestGraphProducerConsumers(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	tA := TensorHandle(1)
	g.PutTensor(newTestTensor(tA, "a"))
	op1 := Op{Handle: 1, Name: "op1", Kind: OpKindCopy, Outputs: []TensorHandle{tA}}
	op2 := Op{Handle: 2, Name: "op2", Kind: OpKindCopy, Inputs: []TensorHandle{tA}}
	g.PutOp(op1)
	g.PutOp(op2)

	p, ok := g.Producer(tA)
	if !ok || p != 1 {
		t.Errorf("Producer(a) = (%v,%v), want (1,true)", p, ok)
	}
	cs := g.Consumers(tA)
	if len(cs) != 1 || cs[0] != 2 {
		t.Errorf("Consumers(a) = %v, want [2]", cs)
	}
}

func TestGraphUnknownHandle(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	if _, err := g.Tensor(99); err == nil {
		t.Error("Tensor(99) on empty graph returned nil error")
	}
	if !errors.Is(func() error { _, err := g.Tensor(99); return err }(), ErrIndexError) {
		t.Error("Tensor(99) error kind is not IndexError")
	}
}
