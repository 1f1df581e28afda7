package chunker

import (
	"sort"

	"github.com/dshills/codechunk/pkg/types"
)

// Node is one boundary in the containment tree. Nodes live in the Tree
// arena and refer to each other by index.
type Node struct {
	ID       int
	Boundary types.Boundary
	Parent   int
	Children []int
}

// Tree is the containment forest over a file's boundaries
type Tree struct {
	Nodes []Node
	Roots []int
}

// Children returns the child indexes of id, or the roots for id < 0
func (t *Tree) Children(id int) []int {
	if id < 0 {
		return t.Roots
	}
	return t.Nodes[id].Children
}

// Build arranges boundaries into a containment tree. Boundaries are sorted
// by start ascending and end descending; each boundary becomes a child of
// the innermost open boundary containing it. A boundary that partially
// overlaps an open one fails with a *types.NestingError.
func Build(bounds []types.Boundary) (*Tree, error) {
	sorted := make([]types.Boundary, 0, len(bounds))
	for _, b := range bounds {
		if b.End > b.Start {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	t := &Tree{Nodes: make([]Node, 0, len(sorted))}
	var stack []int
	for _, b := range sorted {
		for len(stack) > 0 && t.Nodes[stack[len(stack)-1]].Boundary.End <= b.Start {
			stack = stack[:len(stack)-1]
		}
		id := len(t.Nodes)
		n := Node{ID: id, Boundary: b, Parent: -1}
		if len(stack) > 0 {
			top := &t.Nodes[stack[len(stack)-1]]
			if b.End > top.Boundary.End {
				return nil, &types.NestingError{
					First:      top.Boundary.Span,
					FirstKind:  top.Boundary.Kind,
					Second:     b.Span,
					SecondKind: b.Kind,
				}
			}
			n.Parent = top.ID
			top.Children = append(top.Children, id)
		} else {
			t.Roots = append(t.Roots, id)
		}
		t.Nodes = append(t.Nodes, n)
		stack = append(stack, id)
	}
	return t, nil
}

// Depth returns the number of ancestors of node id
func (t *Tree) Depth(id int) int {
	d := 0
	for p := t.Nodes[id].Parent; p >= 0; p = t.Nodes[p].Parent {
		d++
	}
	return d
}
