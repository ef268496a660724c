package workload

import "testing"

// Scenario 1 (§8): rectangle split, 4 workloads, 56x56 tensor, MPE 4x4.
func TestRectanglesScenario1(t *testing.T) {
	t.Parallel()
	boxes, err := Rectangles(56, 56, 4, Options{})
	if err != nil {
		t.Fatalf("Rectangles() error = %v", err)
	}
	if len(boxes) != 4 {
		t.Fatalf("Rectangles() returned %d boxes, want 4", len(boxes))
	}

	var union Box
	first := true
	for _, b := range boxes {
		if b.Mode != Mode4x4 {
			t.Errorf("box %+v has mode %+v, want %+v", b, b.Mode, Mode4x4)
		}
		if got, want := b.Volume(), 784; got != want {
			t.Errorf("box %+v volume = %d, want %d", b, got, want)
		}
		if first {
			union, first = b, false
		} else {
			union = union.Union(b)
		}
	}
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].Overlaps(boxes[j]) {
				t.Errorf("box %d overlaps box %d: %+v / %+v", i, j, boxes[i], boxes[j])
			}
		}
	}
	if union.MinX != 0 || union.MinY != 0 || union.MaxX != 56 || union.MaxY != 56 {
		t.Errorf("union of boxes = %+v, want full 56x56 tensor", union)
	}
}

func TestRectanglesForbiddenAxis(t *testing.T) {
	t.Parallel()
	boxes, err := Rectangles(64, 16, 4, Options{SplitOverH: true, Modes: []Mode{Mode16x16}})
	if err != nil {
		t.Fatalf("Rectangles() error = %v", err)
	}
	for _, b := range boxes {
		if b.Width() != 64 {
			t.Errorf("box %+v split along forbidden W axis", b)
		}
	}
}

func TestRectanglesInvalidInputs(t *testing.T) {
	t.Parallel()
	if _, err := Rectangles(0, 10, 4, Options{}); err == nil {
		t.Error("Rectangles() with zero width returned nil error")
	}
	if _, err := Rectangles(10, 10, 0, Options{}); err == nil {
		t.Error("Rectangles() with zero target count returned nil error")
	}
}

func TestCostFunctions(t *testing.T) {
	t.Parallel()
	costs := []float32{784, 784, 784, 784}
	if got := CriticalPath(costs, 1); got != 784 {
		t.Errorf("CriticalPath(dpus=1) = %v, want 784", got)
	}
	if got := CriticalPath(costs, 4); got != 784+784 {
		t.Errorf("CriticalPath(dpus=4) = %v, want %v", got, 784+784)
	}
	mm := MinMaxWorkloads(costs, 4)
	if mm.Balanced != 784 || mm.WithMax != 784+784 {
		t.Errorf("MinMaxWorkloads() = %+v, want {784 1568}", mm)
	}
	if got := Greedy(costs, 2); got != 1568 {
		t.Errorf("Greedy(dpus=2) = %v, want 1568", got)
	}
}

func TestLatticeConnected(t *testing.T) {
	t.Parallel()
	boxes, err := Lattice(10, 20, 4)
	if err != nil {
		t.Fatalf("Lattice() error = %v", err)
	}
	if len(boxes) != 4 {
		t.Fatalf("Lattice() returned %d boxes, want 4", len(boxes))
	}
	var union Box
	for i, b := range boxes {
		if i == 0 {
			union = b
		} else {
			union = union.Union(b)
		}
	}
	if union.MinX != 0 || union.MaxX != 10 || union.MinY != 0 || union.MaxY != 20 {
		t.Errorf("Lattice() union = %+v, want full 10x20 region", union)
	}
}
