// Package ranges implements a small algebra over half-open integer
// intervals: normalized unions and subtraction.
package ranges

import (
	"fmt"
	"slices"
	"strings"
)

// Range is the half-open interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range covers no offsets.
func (r Range) Empty() bool { return r.End <= r.Start }

// Len returns the number of offsets covered by r.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return r.Start <= o.Start && r.End >= o.End
}

// Overlaps reports whether r and o share at least one offset.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Sub returns the parts of r not covered by other. Subtracting an empty
// range, or one disjoint from r, leaves r unchanged.
func (r Range) Sub(other Range) Ranges {
	parts := make([]Range, 0, 2)
	if r.Start < other.Start {
		parts = append(parts, Range{Start: r.Start, End: min(other.Start, r.End)})
	}
	if r.End > other.End {
		parts = append(parts, Range{Start: max(other.End, r.Start), End: r.End})
	}
	return UnionOf(parts...)
}

// Ranges is a normalized set of ranges: sorted by start, with no two
// members overlapping or touching. The zero value is the empty set.
// Values are never modified after construction.
type Ranges struct {
	rs []Range
}

// UnionOf returns the minimal sorted, disjoint cover of rs. Empty inputs
// are discarded and touching ranges are merged.
func UnionOf(rs ...Range) Ranges {
	sorted := make([]Range, 0, len(rs))
	for _, r := range rs {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	slices.SortFunc(sorted, func(a, b Range) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	union := sorted[:0]
	for _, r := range sorted {
		if n := len(union); n > 0 && union[n-1].End >= r.Start {
			union[n-1].End = max(union[n-1].End, r.End)
			continue
		}
		union = append(union, r)
	}
	if len(union) == 0 {
		return Ranges{}
	}
	return Ranges{rs: union}
}

// Sub subtracts other from every member and re-normalizes, so a single
// subtrahend may split several members independently.
func (s Ranges) Sub(other Range) Ranges {
	parts := make([]Range, 0, len(s.rs)+1)
	for _, r := range s.rs {
		parts = append(parts, r.Sub(other).rs...)
	}
	return UnionOf(parts...)
}

// Outer returns the smallest range enclosing every member, bridging any
// gaps. ok is false for the empty set.
func (s Ranges) Outer() (r Range, ok bool) {
	if len(s.rs) == 0 {
		return Range{}, false
	}
	return Range{Start: s.rs[0].Start, End: s.rs[len(s.rs)-1].End}, true
}

// Len returns the number of members.
func (s Ranges) Len() int { return len(s.rs) }

// IsEmpty reports whether the set has no members.
func (s Ranges) IsEmpty() bool { return len(s.rs) == 0 }

// Slice returns a copy of the members in order.
func (s Ranges) Slice() []Range {
	return slices.Clone(s.rs)
}

// Equal reports whether both sets hold the same members.
func (s Ranges) Equal(o Ranges) bool {
	return slices.Equal(s.rs, o.rs)
}

// Slices returns the text covered by each member, in order.
func (s Ranges) Slices(text string) []string {
	out := make([]string, 0, len(s.rs))
	for _, r := range s.rs {
		out = append(out, text[r.Start:r.End])
	}
	return out
}

func (s Ranges) String() string {
	parts := make([]string, len(s.rs))
	for i, r := range s.rs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
