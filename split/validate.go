package split

import (
	"github.com/samber/lo"
	"github.com/sbl8/dpuforge/model"
)

// CoversParent checks the §8 universal invariant: broadcast strategies
// require every subtensor to equal the parent shape; non-broadcast
// strategies require the union of offset+shape along H to cover the
// parent's H extent. Only H is checked: the C partition of SplitOverK
// is not checked here.
func CoversParent(t *model.Tensor, subs []model.Subtensor) bool {
	if t.Strategy.Broadcast() {
		return len(subs) > 0 && lo.EveryBy(subs, func(s model.Subtensor) bool {
			return s.Shape == t.Shape
		})
	}
	if len(subs) == 0 {
		return false
	}
	minH, maxH := subs[0].Offset.H, subs[0].Offset.H+subs[0].Shape.H
	for _, s := range subs[1:] {
		if s.Offset.H < minH {
			minH = s.Offset.H
		}
		if e := s.Offset.H + s.Shape.H; e > maxH {
			maxH = e
		}
	}
	return minH <= 0 && maxH >= t.Shape.H
}

// Disjoint reports whether every pair of subtensors has a non-
// overlapping H range, the other half of the §3 subtensor invariant.
func Disjoint(subs []model.Subtensor) bool {
	for i := 0; i < len(subs); i++ {
		for j := i + 1; j < len(subs); j++ {
			a, b := subs[i], subs[j]
			aLo, aHi := a.Offset.H, a.Offset.H+a.Shape.H
			bLo, bHi := b.Offset.H, b.Offset.H+b.Shape.H
			if aLo < bHi && bLo < aHi {
				return false
			}
		}
	}
	return true
}
