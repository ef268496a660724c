// Package fixture builds small model.Graph instances for tests and
// for cmd/dpubench's trial harness, following the same inline
// PutTensor/PutOp construction style used throughout this tree's own
// package tests rather than a separate textual graph format.
package fixture

import (
	"strconv"

	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
)

// ConvChain builds a linear chain of n Conv DPUTask ops over a single
// activation tensor threaded through, each reading the previous op's
// output and a freshly populated weight tensor. It is deliberately
// small and shape-agnostic so callers can scale n for a quick
// cost/latency comparison.
func ConvChain(n int, shape core.Shape, kernel int, sess *model.Session) *model.Graph {
	if n < 1 {
		n = 1
	}
	g := model.NewGraph()

	input := sess.NewTensorHandle()
	g.PutTensor(model.Tensor{
		Handle: input, Name: "input", Shape: shape, DType: core.DTypeU8,
		Location: model.LocationProgrammableInput, Strategy: model.StrategySplitOverH,
	})

	prev := input
	for i := 0; i < n; i++ {
		weight := sess.NewTensorHandle()
		g.PutTensor(model.Tensor{
			Handle: weight, Name: nameFor("weight", i), Shape: core.NewShape(shape.C, shape.C, kernel, kernel),
			DType: core.DTypeU8, Populated: true, Location: model.LocationDRAMBSS,
			Strategy: model.StrategyClustering,
		})

		out := sess.NewTensorHandle()
		location := model.LocationScratchpadNN
		strategy := model.StrategySplitOverH
		if i == n-1 {
			location = model.LocationProgrammableOutput
		}
		g.PutTensor(model.Tensor{
			Handle: out, Name: nameFor("activation", i), Shape: shape, DType: core.DTypeU8,
			Location: location, Strategy: strategy,
		})

		op := model.Op{
			Handle:  sess.NewOpHandle(),
			Name:    nameFor("conv", i),
			Kind:    model.OpKindDPUTask,
			Inputs:  []model.TensorHandle{prev, weight},
			Outputs: []model.TensorHandle{out},
			Wait:    []uint32{uint32(2*i + 1)},
			Update:  []uint32{uint32(2*i + 2)},
		}
		op.Attrs.SetDPU(model.DPUAttrs{TaskOp: model.TaskOpConv, KernelH: kernel, KernelW: kernel})
		g.PutOp(op)

		prev = out
	}
	return g
}

func nameFor(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}
