package anntree

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rdleal/intervalst/interval"

	"github.com/dgallion1/epiclist/internal/ranges"
)

// intervalIndex finds the slots whose spans overlap a query range. The
// search tree stores closed intervals, so each span is widened to at least
// one offset and candidates are checked against the exact half-open span.
type intervalIndex struct {
	spans []ranges.Range
	tree  *interval.SearchTree[[]int, int]
}

// key is the closed interval a span is stored under. Spans that widen to
// the same key share one tree value.
func key(r ranges.Range) (start, end int) {
	return r.Start, max(r.End, r.Start+1)
}

func newIntervalIndex(spans []ranges.Range) intervalIndex {
	groups := make(map[[2]int][]int)
	for slot, r := range spans {
		s, e := key(r)
		groups[[2]int{s, e}] = append(groups[[2]int{s, e}], slot)
	}

	tree := interval.NewSearchTree[[]int, int](cmp.Compare[int])
	for k, slots := range groups {
		if err := tree.Insert(k[0], k[1], slots); err != nil {
			// key never yields start > end
			panic(fmt.Sprintf("anntree: insert %v: %v", k, err))
		}
	}
	return intervalIndex{spans: spans, tree: tree}
}

// overlapping appends to out the slots of every span sharing at least
// one offset with q, in (start, end, slot) order.
func (x intervalIndex) overlapping(q ranges.Range, out []int) []int {
	s, e := key(q)
	groups, ok := x.tree.AllIntersections(s, e)
	if !ok {
		return out
	}
	base := len(out)
	for _, slots := range groups {
		for _, slot := range slots {
			if x.spans[slot].Overlaps(q) {
				out = append(out, slot)
			}
		}
	}
	slices.SortFunc(out[base:], func(a, b int) int {
		sa, sb := x.spans[a], x.spans[b]
		if sa.Start != sb.Start {
			return sa.Start - sb.Start
		}
		if sa.End != sb.End {
			return sa.End - sb.End
		}
		return a - b
	})
	return out
}
