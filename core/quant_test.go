package core

import "testing"

func TestQuantParamsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		q    *QuantParams
		want bool
	}{
		{"nil", nil, true},
		{
			name: "per-tensor",
			q: &QuantParams{
				Scale: []float32{1.0}, ZeroPoint: []int32{0},
				Min: []float32{0}, Max: []float32{1},
			},
			want: true,
		},
		{
			name: "per-channel mismatched lengths",
			q: &QuantParams{
				PerChannel: true,
				Scale:      []float32{1, 2, 3},
				ZeroPoint:  []int32{0, 0},
				Min:        []float32{0, 0, 0},
				Max:        []float32{1, 1, 1},
			},
			want: false,
		},
		{
			name: "not per-channel but multiple entries",
			q: &QuantParams{
				Scale:     []float32{1, 2},
				ZeroPoint: []int32{0, 0},
				Min:       []float32{0, 0},
				Max:       []float32{1, 1},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantParamsUniformMultiplier(t *testing.T) {
	t.Parallel()
	q := &QuantParams{PerChannel: true, Multiplier: []uint16{7, 7, 7}}
	if m, ok := q.UniformMultiplier(); !ok || m != 7 {
		t.Errorf("UniformMultiplier() = (%d,%v), want (7,true)", m, ok)
	}
	q2 := &QuantParams{PerChannel: true, Multiplier: []uint16{7, 8}}
	if _, ok := q2.UniformMultiplier(); ok {
		t.Error("UniformMultiplier() = true, want false for differing values")
	}
}

func TestQuantParamsSlice(t *testing.T) {
	t.Parallel()
	q := &QuantParams{
		PerChannel: true,
		Scale:      []float32{1, 2, 3, 4},
		ZeroPoint:  []int32{0, 0, 0, 0},
		Min:        []float32{0, 0, 0, 0},
		Max:        []float32{1, 1, 1, 1},
	}
	sub := q.Slice(1, 3)
	if len(sub.Scale) != 2 || sub.Scale[0] != 2 || sub.Scale[1] != 3 {
		t.Errorf("Slice(1,3).Scale = %v, want [2 3]", sub.Scale)
	}
}
