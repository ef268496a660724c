package workload

// Box is a 3-D axis-aligned integer box inside a DPU output (§3),
// tagged with an MPE mode and per-workload padding. Bounds follow the
// half-open [Min,Max) convention.
type Box struct {
	MinX, MaxX int
	MinY, MaxY int
	MinZ, MaxZ int

	Mode Mode

	PadTop, PadBottom int
	PadLeft, PadRight int
}

func (b Box) Width() int  { return b.MaxX - b.MinX }
func (b Box) Height() int { return b.MaxY - b.MinY }
func (b Box) Depth() int  { return b.MaxZ - b.MinZ }

// Volume returns the number of elements the box covers.
func (b Box) Volume() int { return b.Width() * b.Height() * b.Depth() }

// Empty reports whether the box covers no elements.
func (b Box) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 || b.Depth() <= 0 }

// Union returns the smallest box containing both b and o; used by
// tests to check the universal invariant that a workload list's boxes
// cover the op's full output shape.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	u := b
	if o.MinX < u.MinX {
		u.MinX = o.MinX
	}
	if o.MaxX > u.MaxX {
		u.MaxX = o.MaxX
	}
	if o.MinY < u.MinY {
		u.MinY = o.MinY
	}
	if o.MaxY > u.MaxY {
		u.MaxY = o.MaxY
	}
	if o.MinZ < u.MinZ {
		u.MinZ = o.MinZ
	}
	if o.MaxZ > u.MaxZ {
		u.MaxZ = o.MaxZ
	}
	return u
}

// Overlaps reports whether b and o share any element.
func (b Box) Overlaps(o Box) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.MinX < o.MaxX && o.MinX < b.MaxX &&
		b.MinY < o.MaxY && o.MinY < b.MaxY &&
		b.MinZ < o.MaxZ && o.MinZ < b.MaxZ
}
