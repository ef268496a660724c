package split

import (
	"testing"

	"github.com/sbl8/dpuforge/core"
	"github.com/sbl8/dpuforge/model"
)

// Scenario 2 (§8): SplitOverH over 4 clusters on a 1x224x224x3 input.
func TestSplitOverHScenario2(t *testing.T) {
	t.Parallel()
	tensor := &model.Tensor{
		Name:     "input",
		Shape:    core.Shape{N: 1, H: 224, W: 224, C: 3, Order: "NHWC"},
		DType:    core.DTypeFP32,
		Strategy: model.StrategySplitOverH,
	}

	res, err := Split(tensor, 4, Options{}, nil)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	subs := res.Producer
	if len(subs) != 4 {
		t.Fatalf("Split() returned %d subtensors, want 4", len(subs))
	}

	wantH := [][2]int{{0, 56}, {56, 112}, {112, 168}, {168, 224}}
	for i, s := range subs {
		if s.Offset.H != wantH[i][0] || s.Offset.H+s.Shape.H != wantH[i][1] {
			t.Errorf("subtensor %d H-range = [%d,%d), want [%d,%d)", i, s.Offset.H, s.Offset.H+s.Shape.H, wantH[i][0], wantH[i][1])
		}
		if s.Shape.W != 224 || s.Shape.H != 56 || s.Shape.C != 3 {
			t.Errorf("subtensor %d shape = %+v, want (W=224,H=56,C=3)", i, s.Shape)
		}
	}

	wantStride := int64(56 * 224 * 3 * 4)
	for i := 1; i < len(subs); i++ {
		if diff := subs[i].Address - subs[i-1].Address; diff != wantStride {
			t.Errorf("address stride between subtensor %d and %d = %d, want %d", i-1, i, diff, wantStride)
		}
	}

	if !CoversParent(tensor, subs) {
		t.Error("CoversParent() = false, want true")
	}
	if !Disjoint(subs) {
		t.Error("Disjoint() = false, want true")
	}
}

func TestSplitClusteringBroadcast(t *testing.T) {
	t.Parallel()
	tensor := &model.Tensor{
		Name:     "weights",
		Shape:    core.NewShape(1, 16, 3, 3),
		DType:    core.DTypeFP16,
		Strategy: model.StrategyClustering,
	}
	res, err := Split(tensor, 2, Options{}, nil)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(res.Producer) != 2 {
		t.Fatalf("Split() returned %d subtensors, want 2", len(res.Producer))
	}
	for _, s := range res.Producer {
		if s.Shape != tensor.Shape {
			t.Errorf("clustering subtensor shape = %+v, want parent shape %+v", s.Shape, tensor.Shape)
		}
	}
	if !CoversParent(tensor, res.Producer) {
		t.Error("CoversParent() = false for broadcast strategy")
	}
}

func TestSplitOverKAlignment(t *testing.T) {
	t.Parallel()
	tensor := &model.Tensor{
		Name:     "weights",
		Shape:    core.NewShape(1, 35, 3, 3),
		DType:    core.DTypeI8,
		Strategy: model.StrategySplitOverK,
	}
	res, err := Split(tensor, 2, Options{}, nil)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	total := 0
	for _, s := range res.Producer {
		if s.Shape.C%16 != 0 && s != res.Producer[len(res.Producer)-1] {
			t.Errorf("non-last subtensor channel extent %d not 16-aligned", s.Shape.C)
		}
		total += s.Shape.C
	}
	if total != 35 {
		t.Errorf("sum of channel extents = %d, want 35", total)
	}
}

func TestResolveBoundary(t *testing.T) {
	t.Parallel()
	fx := ResolveBoundary(model.StrategyClustering, model.StrategySplitOverH)
	if !fx.Required || fx.Override != "ClusteringToSoH" {
		t.Errorf("ResolveBoundary(Clustering,SOH) = %+v, want override ClusteringToSoH", fx)
	}
	fx2 := ResolveBoundary(model.StrategySplitOverK, model.StrategyHKSwitch)
	if !fx2.Required || !fx2.Promote {
		t.Errorf("ResolveBoundary(SOK,HKSwitch) = %+v, want Promote", fx2)
	}
	fx3 := ResolveBoundary(model.StrategySplitOverK, model.StrategyClustering)
	if fx3.Required {
		t.Errorf("ResolveBoundary(SOK,Clustering) = %+v, want not required", fx3)
	}
}
