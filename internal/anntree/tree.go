// Package anntree indexes a finished annotation set and answers structural
// queries over it: ancestors, descendants, parent, children and siblings.
//
// Annotations are addressed by their slot, the index into the slice the
// tree was built from. Queries compare slots rather than values because
// distinct annotations may share an identical range.
package anntree

import (
	"slices"

	"github.com/dgallion1/epiclist/internal/ranges"
)

// Node is anything with a range and a nesting depth.
type Node interface {
	Span() ranges.Range
	Nesting() int
}

// Tree is a read-only index over a borrowed slice of nodes. The slice must
// not be modified while the tree is in use.
type Tree[T Node] struct {
	nodes []T
	index intervalIndex
}

// New indexes nodes.
func New[T Node](nodes []T) *Tree[T] {
	spans := make([]ranges.Range, len(nodes))
	for i, n := range nodes {
		spans[i] = n.Span()
	}
	return &Tree[T]{nodes: nodes, index: newIntervalIndex(spans)}
}

// Len returns the number of indexed nodes.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// At returns the node in slot i.
func (t *Tree[T]) At(i int) T { return t.nodes[i] }

// Query returns the slots of all nodes overlapping r, unfiltered.
func (t *Tree[T]) Query(r ranges.Range) []int {
	return t.index.overlapping(r, nil)
}

// probe widens an empty span by one offset on each side so the overlap
// query still reaches nodes that contain it.
func probe(span ranges.Range) ranges.Range {
	if span.Empty() {
		return ranges.Range{Start: span.Start - 1, End: span.Start + 1}
	}
	return span
}

// Ancestors returns the nodes enclosing slot i at a smaller depth, nearest
// first: by depth descending, then start descending, then end descending.
func (t *Tree[T]) Ancestors(i int) []int {
	cur := t.nodes[i]
	span, depth := cur.Span(), cur.Nesting()

	var out []int
	for _, slot := range t.Query(probe(span)) {
		n := t.nodes[slot]
		if slot != i && n.Span().Contains(span) && n.Nesting() < depth {
			out = append(out, slot)
		}
	}
	slices.SortFunc(out, func(a, b int) int {
		na, nb := t.nodes[a], t.nodes[b]
		if d := nb.Nesting() - na.Nesting(); d != 0 {
			return d
		}
		ra, rb := na.Span(), nb.Span()
		if ra.Start != rb.Start {
			return rb.Start - ra.Start
		}
		if ra.End != rb.End {
			return rb.End - ra.End
		}
		return a - b
	})
	return out
}

// Descendants returns the nodes enclosed by slot i at a greater depth,
// shallowest first: by depth ascending, then start ascending, then end
// ascending.
func (t *Tree[T]) Descendants(i int) []int {
	cur := t.nodes[i]
	span, depth := cur.Span(), cur.Nesting()

	var out []int
	for _, slot := range t.Query(probe(span)) {
		n := t.nodes[slot]
		if slot != i && span.Contains(n.Span()) && n.Nesting() > depth {
			out = append(out, slot)
		}
	}
	slices.SortFunc(out, func(a, b int) int {
		na, nb := t.nodes[a], t.nodes[b]
		if d := na.Nesting() - nb.Nesting(); d != 0 {
			return d
		}
		ra, rb := na.Span(), nb.Span()
		if ra.Start != rb.Start {
			return ra.Start - rb.Start
		}
		if ra.End != rb.End {
			return ra.End - rb.End
		}
		return a - b
	})
	return out
}

// Parent returns the nearest ancestor exactly one level shallower than
// slot i. An ancestor chain that skips that depth has no parent.
func (t *Tree[T]) Parent(i int) (int, bool) {
	want := t.nodes[i].Nesting() - 1
	for _, slot := range t.Ancestors(i) {
		if t.nodes[slot].Nesting() == want {
			return slot, true
		}
	}
	return -1, false
}

// Children returns the descendants of slot i exactly one level deeper.
func (t *Tree[T]) Children(i int) []int {
	want := t.nodes[i].Nesting() + 1
	var out []int
	for _, slot := range t.Descendants(i) {
		if t.nodes[slot].Nesting() == want {
			out = append(out, slot)
		}
	}
	return out
}

// Siblings returns the other children of slot i's parent.
func (t *Tree[T]) Siblings(i int) []int {
	p, ok := t.Parent(i)
	if !ok {
		return nil
	}
	var out []int
	for _, slot := range t.Children(p) {
		if slot != i {
			out = append(out, slot)
		}
	}
	return out
}

// Before returns the siblings ending at or before slot i starts.
func (t *Tree[T]) Before(i int) []int {
	start := t.nodes[i].Span().Start
	var out []int
	for _, slot := range t.Siblings(i) {
		if t.nodes[slot].Span().End <= start {
			out = append(out, slot)
		}
	}
	return out
}

// After returns the siblings starting at or after slot i ends.
func (t *Tree[T]) After(i int) []int {
	end := t.nodes[i].Span().End
	var out []int
	for _, slot := range t.Siblings(i) {
		if t.nodes[slot].Span().Start >= end {
			out = append(out, slot)
		}
	}
	return out
}
