package core

import "testing"

func TestShapeValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    Shape
		want bool
	}{
		{"valid NCHW", NewShape(1, 3, 224, 224), true},
		{"zero dim", Shape{W: 0, H: 1, C: 1, N: 1, Order: "NCHW"}, false},
		{"negative dim", Shape{W: 1, H: -1, C: 1, N: 1, Order: "NCHW"}, false},
		{"short order", Shape{W: 1, H: 1, C: 1, N: 1, Order: "NCH"}, false},
		{"repeated axis", Shape{W: 1, H: 1, C: 1, N: 1, Order: "NCHC"}, false},
		{"unknown axis", Shape{W: 1, H: 1, C: 1, N: 1, Order: "NCHX"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Shape.Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShapeVolume(t *testing.T) {
	t.Parallel()
	s := NewShape(1, 3, 224, 224)
	if got, want := s.Volume(), 1*3*224*224; got != want {
		t.Errorf("Volume() = %d, want %d", got, want)
	}
}

func TestShapeStrides(t *testing.T) {
	t.Parallel()
	s := NewShape(1, 3, 4, 5) // N=1,C=3,H=4,W=5, order NCHW
	strides := s.Strides()
	want := []int{3 * 4 * 5, 4 * 5, 5, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("Strides()[%d] = %d, want %d", i, strides[i], want[i])
		}
	}
}

func TestLinearIndex(t *testing.T) {
	t.Parallel()
	parent := NewShape(1, 3, 224, 224)
	offset := Shape{N: 0, C: 0, H: 56, W: 0, Order: "NCHW"}
	got := LinearIndex(parent, offset)
	want := 56 * 224 // H offset times W extent
	if got != want {
		t.Errorf("LinearIndex() = %d, want %d", got, want)
	}
}

func TestByteSize(t *testing.T) {
	t.Parallel()
	s := NewShape(1, 1, 1, 8)
	if got, want := ByteSize(s, DTypeI4), 4; got != want {
		t.Errorf("ByteSize(i4) = %d, want %d", got, want)
	}
	if got, want := ByteSize(s, DTypeFP32), 32; got != want {
		t.Errorf("ByteSize(fp32) = %d, want %d", got, want)
	}
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	if err := ParseOrder("NCHW"); err != nil {
		t.Errorf("ParseOrder(NCHW) returned %v, want nil", err)
	}
	if err := ParseOrder("NCHX"); err == nil {
		t.Error("ParseOrder(NCHX) returned nil, want error")
	}
	if err := ParseOrder("NCH"); err == nil {
		t.Error("ParseOrder(NCH) returned nil, want error")
	}
}
