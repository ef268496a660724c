package workload

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Lattice is the METIS-style fallback partitioner (§4.1, second
// engine), retained as an optional path for shapes the rectangle
// heuristic cannot tile (Design Notes: "An implementation may omit
// the lattice path entirely provided the rectangle heuristic... plus
// its empty-cluster fallback satisfy every scenario").
//
// It builds a 4-connected grid over the w x h unpadded elements (no
// MPE mode is applied; boxes are tagged Mode4x4), confirms the
// region is a single connected component with gonum's connectivity
// check, then reconstructs it as N contiguous row-major bands -- a
// conservative polygon split that always yields rectangles, rather
// than the general "interesting point" recursive search the source
// performs.
func Lattice(w, h, n int) ([]Box, error) {
	if n <= 0 {
		return nil, fmt.Errorf("workload: lattice target count must be positive")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("workload: lattice shape must be positive, got %dx%d", w, h)
	}

	g := simple.NewUndirectedGraph()
	id := func(x, y int) int64 { return int64(y*w + x) }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.AddNode(simple.Node(id(x, y)))
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x+1 < w {
				g.SetEdge(simple.Edge{F: simple.Node(id(x, y)), T: simple.Node(id(x+1, y))})
			}
			if y+1 < h {
				g.SetEdge(simple.Edge{F: simple.Node(id(x, y)), T: simple.Node(id(x, y+1))})
			}
		}
	}
	if comps := topo.ConnectedComponents(g); len(comps) != 1 {
		return nil, fmt.Errorf("workload: lattice grid is not a single connected region (%d components)", len(comps))
	}

	bands := n
	if bands > h {
		bands = h
	}
	base, rem := h/bands, h%bands

	var boxes []Box
	y := 0
	for i := 0; i < bands; i++ {
		rows := base
		if i < rem {
			rows++
		}
		if rows == 0 {
			continue
		}
		boxes = append(boxes, Box{
			MinX: 0, MaxX: w,
			MinY: y, MaxY: y + rows,
			MinZ: 0, MaxZ: 1,
			Mode: Mode4x4,
		})
		y += rows
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("workload: lattice produced zero regions")
	}
	return boxes, nil
}
