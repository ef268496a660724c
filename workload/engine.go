package workload

import (
	"fmt"
	"math"
	"sort"

	"github.com/sbl8/dpuforge/core"
)

// Options constrains the rectangle heuristic's search (§4.1).
type Options struct {
	// Modes restricts the candidate MPE modes tried during padding
	// selection; nil means try every mode in Catalog.
	Modes []Mode

	// SplitOverH, when true, forbids splitting along the W axis (only
	// the H axis may be divided among the N workloads).
	SplitOverH bool
	// SplitOverW forbids splitting along the H axis.
	SplitOverW bool
	// SplitSymmetric disables the non-symmetric (L-shaped) search,
	// step 3 of the heuristic.
	SplitSymmetric bool
	// SplitMode selects which axis stands in for the channel
	// dimension: "", "H", "HW" leave channel untouched; "HC", "WC",
	// "NC" substitute C into the named 2-D axis (§4.1 step 5).
	SplitMode string
}

type padding struct {
	mode               Mode
	paddedW, paddedH   int
	reducedW, reducedH int
	score              float64
}

// selectPadding tries every candidate mode and returns every one that
// produced at least one MPE cell, sorted best-score first, so the
// caller can fall through to the next-best mode on failure (§4.1:
// "if every candidate mode yields 0 slices... returns failure").
func selectPadding(w, h int, modes []Mode) []padding {
	out := make([]padding, 0, len(modes))
	for _, m := range modes {
		if m.H <= 0 || m.W <= 0 {
			continue
		}
		pw := core.RoundUp(w, m.W)
		ph := core.RoundUp(h, m.H)
		if pw == 0 || ph == 0 {
			continue
		}
		original := float64(w) * float64(h)
		paddedVol := float64(pw) * float64(ph)
		score := original / paddedVol
		out = append(out, padding{
			mode: m, paddedW: pw, paddedH: ph,
			reducedW: pw / m.W, reducedH: ph / m.H,
			score: score,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func factorPairs(n int) [][2]int {
	var out [][2]int
	for x := 1; x <= n; x++ {
		if n%x == 0 {
			out = append(out, [2]int{x, n / x})
		}
	}
	return out
}

func symmetricCost(reducedW, reducedH, x, y int, opt Options) float64 {
	if opt.SplitOverH && x != 1 {
		return math.Inf(1)
	}
	if opt.SplitOverW && y != 1 {
		return math.Inf(1)
	}
	return float64(reducedW%x)*float64(reducedH) + float64(reducedH%y)*float64(reducedW)
}

// nonSymmetricSplit scores an L-shaped split: a slab of (k+1) strips
// cut along the longer reduced axis, with the remainder symmetrically
// tiled (k,p) over what is left (§4.1 step 3).
func nonSymmetricSplit(reducedW, reducedH, n int, opt Options) (x, y int, cost float64, ok bool) {
	if n-1 < 1 {
		return 0, 0, math.Inf(1), false
	}
	best := math.Inf(1)
	var bestX, bestY int
	for _, pair := range factorPairs(n - 1) {
		k, p := pair[0], pair[1]
		var c float64
		var cx, cy int
		if reducedW >= reducedH {
			if opt.SplitOverH || (opt.SplitOverW && p != 1) {
				continue
			}
			c = float64(reducedW%(k+1))*float64(reducedH) + float64(reducedH%p)*float64(reducedW)
			cx, cy = k+1, p
		} else {
			if opt.SplitOverW || (opt.SplitOverH && p != 1) {
				continue
			}
			c = float64(reducedH%(k+1))*float64(reducedW) + float64(reducedW%p)*float64(reducedH)
			cx, cy = p, k+1
		}
		if c < best {
			best, bestX, bestY = c, cx, cy
		}
	}
	if math.IsInf(best, 1) {
		return 0, 0, best, false
	}
	return bestX, bestY, best, true
}

// tile slices a reducedW x reducedH grid of MPE cells into an x-by-y
// grid of slabs, the last row/column absorbing any remainder, then
// scales back into the original coordinate system and clips to the
// unpadded extents (§4.1 step 4).
func tile(x, y, reducedW, reducedH int, mode Mode, origW, origH int) []Box {
	if x <= 0 || y <= 0 {
		return nil
	}
	baseW, remW := reducedW/x, reducedW%x
	baseH, remH := reducedH/y, reducedH%y

	var boxes []Box
	curY := 0
	for j := 0; j < y; j++ {
		rows := baseH
		if j == y-1 {
			rows += remH
		}
		curX := 0
		for i := 0; i < x; i++ {
			cols := baseW
			if i == x-1 {
				cols += remW
			}
			if rows > 0 && cols > 0 {
				minX := curX * mode.W
				maxX := minX + cols*mode.W
				minY := curY * mode.H
				maxY := minY + rows*mode.H
				if maxX > origW {
					maxX = origW
				}
				if maxY > origH {
					maxY = origH
				}
				if maxX > minX && maxY > minY {
					boxes = append(boxes, Box{
						MinX: minX, MaxX: maxX,
						MinY: minY, MaxY: maxY,
						MinZ: 0, MaxZ: 1,
						Mode: mode,
					})
				}
			}
			curX += cols
		}
		curY += rows
	}
	return boxes
}

// Rectangles implements the rectangle heuristic of §4.1: it produces
// up to n axis-aligned boxes tiling [0,w)x[0,h) with minimal wasted
// MPE cells. Every returned box's MaxZ is 1; callers needing channel
// extents use RectanglesChannel.
func Rectangles(w, h, n int, opt Options) ([]Box, error) {
	if n <= 0 {
		return nil, fmt.Errorf("workload: target workload count must be positive, got %d", n)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("workload: shape must be positive, got %dx%d", w, h)
	}
	modes := opt.Modes
	if len(modes) == 0 {
		modes = Catalog
	}
	candidates := selectPadding(w, h, modes)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("workload: no candidate MPE mode fits shape %dx%d", w, h)
	}

	for _, pick := range candidates {
		bestX, bestY, bestCost := 0, 0, math.Inf(1)
		for _, pair := range factorPairs(n) {
			x, y := pair[0], pair[1]
			c := symmetricCost(pick.reducedW, pick.reducedH, x, y, opt)
			if c < bestCost {
				bestCost, bestX, bestY = c, x, y
			}
		}
		if !opt.SplitSymmetric {
			if x, y, c, ok := nonSymmetricSplit(pick.reducedW, pick.reducedH, n, opt); ok && c < bestCost {
				bestCost, bestX, bestY = c, x, y
			}
		}
		if math.IsInf(bestCost, 1) {
			continue
		}
		boxes := tile(bestX, bestY, pick.reducedW, pick.reducedH, pick.mode, w, h)
		if len(boxes) > 0 {
			return boxes, nil
		}
	}
	return nil, fmt.Errorf("workload: rectangle heuristic produced zero slices for every candidate mode")
}

// RectanglesChannel applies §4.1 step 5: when opt.SplitMode names a
// channel-combining axis, C is substituted into the named 2-D axis
// and the result carries explicit Z (channel) extents; otherwise every
// box simply covers the full channel depth.
func RectanglesChannel(w, h, c, n int, opt Options) ([]Box, error) {
	switch opt.SplitMode {
	case "HC":
		boxes, err := Rectangles(c, h, n, opt)
		if err != nil {
			return nil, err
		}
		for i := range boxes {
			boxes[i].MinZ, boxes[i].MaxZ = boxes[i].MinX, boxes[i].MaxX
			boxes[i].MinX, boxes[i].MaxX = 0, w
		}
		return boxes, nil
	case "WC":
		boxes, err := Rectangles(w, c, n, opt)
		if err != nil {
			return nil, err
		}
		for i := range boxes {
			boxes[i].MinZ, boxes[i].MaxZ = boxes[i].MinY, boxes[i].MaxY
			boxes[i].MinY, boxes[i].MaxY = 0, h
		}
		return boxes, nil
	case "NC":
		boxes, err := Rectangles(c, 1, n, opt)
		if err != nil {
			return nil, err
		}
		for i := range boxes {
			boxes[i].MinZ, boxes[i].MaxZ = boxes[i].MinX, boxes[i].MaxX
			boxes[i].MinX, boxes[i].MaxX = 0, w
			boxes[i].MinY, boxes[i].MaxY = 0, h
		}
		return boxes, nil
	default:
		boxes, err := Rectangles(w, h, n, opt)
		if err != nil {
			return nil, err
		}
		for i := range boxes {
			boxes[i].MaxZ = c
		}
		return boxes, nil
	}
}
