package core

import (
	"fmt"
	"strings"
)

// Shape is an ordered set of tensor dimensions with a declared layout
// order, e.g. W=224,H=224,C=3,N=1 with Order "NCHW".
type Shape struct {
	W, H, C, N int
	Order      string // permutation string over {N,C,H,W}, e.g. "NCHW"
}

// NewShape builds a Shape with the conventional NCHW order.
func NewShape(n, c, h, w int) Shape {
	return Shape{W: w, H: h, C: c, N: n, Order: "NCHW"}
}

// Volume returns the total element count W*H*C*N.
func (s Shape) Volume() int {
	return s.W * s.H * s.C * s.N
}

// Valid reports whether every dimension is positive and Order is a
// permutation of N, C, H, W.
func (s Shape) Valid() bool {
	if s.W <= 0 || s.H <= 0 || s.C <= 0 || s.N <= 0 {
		return false
	}
	if len(s.Order) != 4 {
		return false
	}
	seen := map[byte]bool{}
	for i := 0; i < len(s.Order); i++ {
		c := s.Order[i]
		if c != 'N' && c != 'C' && c != 'H' && c != 'W' {
			return false
		}
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

func (s Shape) dim(axis byte) int {
	switch axis {
	case 'N':
		return s.N
	case 'C':
		return s.C
	case 'H':
		return s.H
	case 'W':
		return s.W
	default:
		return 0
	}
}

// Strides computes the element strides for s.Order, most-minor axis
// (last character of Order) having stride 1.
func (s Shape) Strides() []int {
	n := len(s.Order)
	strides := make([]int, n)
	acc := 1
	for i := n - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s.dim(s.Order[i])
	}
	return strides
}

// LinearIndex computes the flat element offset of a per-axis offset
// (given as a Shape whose fields hold offsets rather than extents)
// within a tensor of shape `parent`, under parent's layout order.
func LinearIndex(parent Shape, offset Shape) int {
	strides := parent.Strides()
	acc := 0
	for i := 0; i < len(parent.Order); i++ {
		acc += offset.dim(parent.Order[i]) * strides[i]
	}
	return acc
}

// ByteSize returns the storage footprint of a tensor with shape s and
// dtype d, rounding sub-byte dtypes up to whole bytes across the whole
// volume (not per element) so I4/BIN pack tightly.
func ByteSize(s Shape, d DType) int {
	bits := s.Volume() * d.BitWidth()
	return (bits + 7) / 8
}

func (s Shape) String() string {
	return fmt.Sprintf("%s(N=%d,C=%d,H=%d,W=%d)", s.Order, s.N, s.C, s.H, s.W)
}

// WithHW returns a copy of s with H and W replaced; used by the
// rectangle engine and subtensor splitter to materialise sliced shapes.
func (s Shape) WithHW(h, w int) Shape {
	s.H, s.W = h, w
	return s
}

// WithC returns a copy of s with C replaced.
func (s Shape) WithC(c int) Shape {
	s.C = c
	return s
}

// ParseOrder validates a layout permutation string like "NCHW".
func ParseOrder(order string) error {
	order = strings.ToUpper(order)
	if len(order) != 4 {
		return fmt.Errorf("layout order %q must have 4 axes", order)
	}
	seen := map[byte]bool{}
	for i := 0; i < 4; i++ {
		c := order[i]
		if !strings.ContainsRune("NCHW", rune(c)) {
			return fmt.Errorf("layout order %q contains unknown axis %q", order, string(c))
		}
		if seen[c] {
			return fmt.Errorf("layout order %q repeats axis %q", order, string(c))
		}
		seen[c] = true
	}
	return nil
}
