package strategy

import "github.com/sbl8/dpuforge/model"

// findLCSA implements §4.3.2's parenthesis-matching walk: starting
// from a pivot (a join op with more than one parent), it walks
// backward through topological order counting the open branch edges
// (child-to-parent edges not yet walked), starting with one per pivot
// parent. Each ancestor that can still reach the touched set closes
// every open edge that ends at it; if that leaves none open and no
// branch has ended at a graph input before, it is the lowest common
// single ancestor. Otherwise its own parent edges are opened.
func findLCSA(g *model.Graph, order []model.OpHandle, posOf map[model.OpHandle]int, pivot model.OpHandle) (lcsa model.OpHandle, touched []model.OpHandle, err error) {
	parents, err := g.Parents(pivot)
	if err != nil {
		return 0, nil, err
	}
	open := len(parents)
	reaches := map[model.OpHandle]bool{pivot: true}
	var ordered []model.OpHandle
	ended := false

	for idx := posOf[pivot] - 1; idx >= 0; idx-- {
		h := order[idx]
		children, err := g.Children(h)
		if err != nil {
			return 0, nil, err
		}
		closed := 0
		for _, c := range children {
			if reaches[c] {
				closed++
			}
		}
		if closed == 0 {
			continue
		}
		reaches[h] = true
		ordered = append(ordered, h)

		open -= closed
		if open == 0 && !ended {
			return h, append([]model.OpHandle{pivot}, ordered...), nil
		}
		parentsH, err := g.Parents(h)
		if err != nil {
			return 0, nil, err
		}
		if len(parentsH) == 0 && open > 0 {
			ended = true
		}
		open += len(parentsH)
	}
	// No single ancestor closes every branch (e.g. branches lead back
	// to distinct graph inputs): the section spans everything walked.
	if len(ordered) > 0 {
		return ordered[len(ordered)-1], append([]model.OpHandle{pivot}, ordered...), nil
	}
	return pivot, []model.OpHandle{pivot}, nil
}

// branchingSections finds every join pivot in topological order and
// its associated LCSA section (§4.3.2-3), and returns the union of the
// ops of every section as one set; an op in several sections (nested
// branching) appears once, and the set does not record which pivot it
// came from.
func branchingSections(g *model.Graph, order []model.OpHandle) (map[model.OpHandle]bool, error) {
	posOf := make(map[model.OpHandle]int, len(order))
	for i, h := range order {
		posOf[h] = i
	}
	forced := make(map[model.OpHandle]bool)
	for _, h := range order {
		parents, err := g.Parents(h)
		if err != nil {
			return nil, err
		}
		if len(parents) <= 1 {
			continue
		}
		_, touched, err := findLCSA(g, order, posOf, h)
		if err != nil {
			return nil, err
		}
		for _, t := range touched {
			forced[t] = true
		}
	}
	return forced, nil
}
