// Package split implements the subtensor splitter: for each tensor and
// a target cluster count N, it materialises N subtensor views whose
// offsets, shapes, and addresses implement the tensor's current split
// strategy (§4.2).
package split

import (
	"fmt"

	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/workload"
	"go.uber.org/zap"
)

// Options carries the extra per-op parameters some strategies need
// beyond the tensor and cluster count.
type Options struct {
	// HaloH is the vertical halo (kernelH-1) SplitOverHOverlapped
	// extends each slice by into its neighbours.
	HaloH int
}

// Result is the outcome of splitting one tensor. Producer always
// holds the primary subtensor set; Consumer is populated only under
// model.StrategyClusteringAndSOH, per the two-parallel-arrays design
// decision (§9 Open Questions): rather than a doubled array indexed by
// clusterId+N, the producer's clustering set and the consumer's
// SplitOverH set are kept as separate slices.
type Result struct {
	Strategy model.SplitStrategy
	Producer []model.Subtensor
	Consumer []model.Subtensor
}

// Split materialises N subtensor views for t under its current
// strategy.
func Split(t *model.Tensor, n int, opt Options, sess *model.Session) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("split: cluster count must be positive, got %d", n)
	}
	res, err := split(t, n, opt)
	if err != nil {
		return Result{}, err
	}
	sess.Logger().Debug("split tensor",
		zap.String("pass", "split"),
		zap.String("op_name", t.Name),
		zap.Uint32("handle", uint32(t.Handle)),
		zap.String("strategy", res.Strategy.String()),
		zap.Int("subtensors", len(res.Producer)))
	return res, nil
}

func split(t *model.Tensor, n int, opt Options) (Result, error) {
	switch t.Strategy {
	case model.StrategyClustering:
		return splitClustering(t, n)
	case model.StrategySplitOverH, model.StrategyHKSwitch:
		subs, err := splitOverH(t, n)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: t.Strategy, Producer: subs}, nil
	case model.StrategySplitOverHOverlapped:
		subs, err := splitOverHOverlapped(t, n, opt.HaloH)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: t.Strategy, Producer: subs}, nil
	case model.StrategySplitOverK:
		subs, err := splitOverK(t, n)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: t.Strategy, Producer: subs}, nil
	case model.StrategyClusteringAndSOH:
		return splitClusteringAndSOH(t, n)
	default:
		return Result{}, fmt.Errorf("split: tensor %q has no split strategy set", t.Name)
	}
}

func addressOf(t *model.Tensor, offset core.Shape) int64 {
	return t.Address + int64(core.LinearIndex(t.Shape, offset))*int64(t.DType.Bytes())
}

func splitClustering(t *model.Tensor, n int) (Result, error) {
	subs := make([]model.Subtensor, n)
	for i := 0; i < n; i++ {
		subs[i] = model.Subtensor{
			Offset:  core.Shape{Order: t.Shape.Order},
			Shape:   t.Shape,
			Address: t.Address,
			Locale:  i,
		}
	}
	return Result{Strategy: model.StrategyClustering, Producer: subs}, nil
}

// splitOverH reuses the rectangle engine with a degenerate {1,1} MPE
// mode (§4.2: "rectangle heuristic, 1 DPU-mode {1,1}"), treating the
// tensor's H extent as the engine's W axis so the heuristic's own
// last-slice-absorbs-remainder tiling produces the H partition.
func splitOverH(t *model.Tensor, n int) ([]model.Subtensor, error) {
	mode := []workload.Mode{{H: 1, W: 1}}
	boxes, err := workload.Rectangles(t.Shape.H, 1, n, workload.Options{Modes: mode})
	if err != nil || len(boxes) < n {
		return equalSliceOverH(t, n), nil
	}
	subs := make([]model.Subtensor, 0, len(boxes))
	for i, b := range boxes {
		off := core.Shape{H: b.MinX, Order: t.Shape.Order}
		shape := core.Shape{W: t.Shape.W, H: b.Width(), C: t.Shape.C, N: t.Shape.N, Order: t.Shape.Order}
		subs = append(subs, model.Subtensor{
			Offset: off, Shape: shape, Address: addressOf(t, off), Locale: i,
		})
	}
	return subs, nil
}

// equalSliceOverH is the equal-slice fallback used when the rectangle
// engine returns fewer than N subtensors (§4.2): it slices H into n
// equal extents with no 16-alignment and lets the last slice absorb
// the remainder. The W axis is never sliced here.
func equalSliceOverH(t *model.Tensor, n int) []model.Subtensor {
	extents := equalAligned(t.Shape.H, n, 1)
	subs := make([]model.Subtensor, 0, n)
	offset := 0
	for i, e := range extents {
		if e <= 0 {
			continue
		}
		off := core.Shape{H: offset, Order: t.Shape.Order}
		shape := core.Shape{W: t.Shape.W, H: e, C: t.Shape.C, N: t.Shape.N, Order: t.Shape.Order}
		subs = append(subs, model.Subtensor{Offset: off, Shape: shape, Address: addressOf(t, off), Locale: i})
		offset += e
	}
	return subs
}

func splitOverHOverlapped(t *model.Tensor, n, haloH int) ([]model.Subtensor, error) {
	subs, err := splitOverH(t, n)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		lo := subs[i].Offset.H - haloH
		if lo < 0 {
			lo = 0
		}
		hi := subs[i].Offset.H + subs[i].Shape.H + haloH
		if hi > t.Shape.H {
			hi = t.Shape.H
		}
		subs[i].Offset.H = lo
		subs[i].Shape.H = hi - lo
		subs[i].Address = addressOf(t, subs[i].Offset)
	}
	return subs, nil
}

func splitOverK(t *model.Tensor, n int) ([]model.Subtensor, error) {
	extents := equalAligned(t.Shape.C, n, 16)
	subs := make([]model.Subtensor, 0, n)
	offset := 0
	for i, e := range extents {
		if e <= 0 {
			continue
		}
		off := core.Shape{C: offset, Order: t.Shape.Order}
		shape := core.Shape{W: t.Shape.W, H: t.Shape.H, C: e, N: t.Shape.N, Order: t.Shape.Order}
		sub := model.Subtensor{Offset: off, Shape: shape, Address: addressOf(t, off), Locale: i}
		if t.Quant != nil {
			sub.Quant = t.Quant.Slice(offset, offset+e)
		}
		subs = append(subs, sub)
		offset += e
	}
	return subs, nil
}

func splitClusteringAndSOH(t *model.Tensor, n int) (Result, error) {
	clusterRes, err := splitClustering(t, n)
	if err != nil {
		return Result{}, err
	}
	sohSubs, err := splitOverH(t, n)
	if err != nil {
		return Result{}, err
	}
	return Result{Strategy: model.StrategyClusteringAndSOH, Producer: clusterRes.Producer, Consumer: sohSubs}, nil
}

// equalAligned splits total into n extents, each rounded down to a
// multiple of align (align=1 disables alignment; a unit that rounds
// to zero becomes align), capped so the extents never sum past total,
// the last extent absorbing the remainder.
func equalAligned(total, n, align int) []int {
	if n <= 0 {
		return nil
	}
	unit := total / n
	if align > 1 {
		unit = (unit / align) * align
	}
	if unit == 0 {
		unit = align
	}
	extents := make([]int, n)
	used := 0
	for i := 0; i < n-1; i++ {
		e := unit
		if e > total-used {
			e = total - used
		}
		extents[i] = e
		used += e
	}
	last := total - used
	if last < 0 {
		last = 0
	}
	extents[n-1] = last
	return extents
}
