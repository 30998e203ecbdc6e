/*
dated.go - Attribute histories and the interval merge/split algebra

PURPOSE:
  Licence roles, invoice accounts and agreements are all histories: a value
  that holds over a date range, then changes. Billing needs one sub-period
  for every stretch of time where none of those values change. This file
  holds the two operations that get us there:

  Merge: collapse a sorted history so that consecutive, contiguous entries
         carrying the same value become one entry.

  Split: cut a base range at every boundary of a history, attaching the
         history's value to each piece.

EXAMPLE:
  holders := []Dated[string]{
      {Period: Period{Start: apr1, End: jun30}, Value: "acme"},
      {Period: Period{Start: jul1, End: sep30}, Value: "acme"},
      {Period: Period{Start: oct1},             Value: "beta"},
  }
  merged := Merge(holders, nil)
  // [apr1, sep30] acme, [oct1, open] beta

  base := Segment[string]{Original: fy, Effective: fy}
  parts := Split(base, merged, func(_ string, h string) string { return h })
  // [apr1, sep30] acme, [oct1, mar31] beta

SEE ALSO:
  - period.go: Intersect and Follows used here
  - chargeperiod/assemble.go: chains Split over several histories
*/
package generic

import (
	"reflect"
	"sort"
)

// =============================================================================
// DATED VALUES
// =============================================================================

// Dated is a value in force over a period.
type Dated[T any] struct {
	Period
	Value T
}

// Segment is a piece of an original range. Effective is the part of Original
// the segment covers after splitting.
type Segment[T any] struct {
	Original  Period
	Effective Period
	Value     T
}

// NewSegment starts a split chain from a whole range.
func NewSegment[T any](p Period, value T) Segment[T] {
	return Segment[T]{Original: p, Effective: p, Value: value}
}

// SortByStart returns a copy of items ordered by start date. Equal starts
// keep their input order.
func SortByStart[T any](items []Dated[T]) []Dated[T] {
	sorted := make([]Dated[T], len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// =============================================================================
// MERGE
// =============================================================================

// Merge collapses adjacent entries whose values are equal and whose dates are
// contiguous. items must already be sorted by start date. A nil equal uses
// deep equality on the values.
//
// Merge is idempotent: Merge(Merge(x)) == Merge(x).
func Merge[T any](items []Dated[T], equal func(a, b T) bool) []Dated[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}

	merged := make([]Dated[T], 0, len(items))
	for _, item := range items {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if equal(last.Value, item.Value) && item.Period.Follows(last.Period) {
				last.End = item.End
				continue
			}
		}
		merged = append(merged, item)
	}
	return merged
}

// =============================================================================
// SPLIT
// =============================================================================

// Split intersects base.Effective with every entry of history and returns one
// segment per overlap, in history order. attach combines the base value with
// the history value. Parts of the base not covered by history are dropped;
// use Cover first when the history may have gaps.
//
// When history entries do not overlap each other, neither do the results.
func Split[T, A any](base Segment[T], history []Dated[A], attach func(T, A) T) []Segment[T] {
	var parts []Segment[T]
	for _, h := range history {
		overlap, ok := base.Effective.Intersect(h.Period)
		if !ok {
			continue
		}
		parts = append(parts, Segment[T]{
			Original:  base.Original,
			Effective: overlap,
			Value:     attach(base.Value, h.Value),
		})
	}
	return parts
}

// SplitAll applies Split to every segment and concatenates the results.
func SplitAll[T, A any](segments []Segment[T], history []Dated[A], attach func(T, A) T) []Segment[T] {
	var parts []Segment[T]
	for _, s := range segments {
		parts = append(parts, Split(s, history, attach)...)
	}
	return parts
}

// =============================================================================
// COVER
// =============================================================================

// Cover returns history with a fill-valued entry synthesised for every gap
// inside within, so that a following Split loses no part of within. history
// must be sorted by start date and must not overlap itself.
func Cover[A any](history []Dated[A], within Period, fill A) []Dated[A] {
	covered := make([]Dated[A], 0, len(history)+1)
	cursor := within.Start
	done := false

	inWithin := func(tp TimePoint) bool { return within.IsOpen() || tp.BeforeOrEqual(within.End) }

	for _, h := range history {
		if !done && h.Start.After(cursor) && inWithin(cursor) {
			gapEnd := h.Start.AddDays(-1)
			if !within.IsOpen() {
				gapEnd = MinTime(gapEnd, within.End)
			}
			covered = append(covered, Dated[A]{Period: Period{Start: cursor, End: gapEnd}, Value: fill})
		}
		covered = append(covered, h)

		if h.IsOpen() {
			done = true
		} else if !done {
			cursor = MaxTime(cursor, h.End.AddDays(1))
		}
	}

	if !done && inWithin(cursor) {
		covered = append(covered, Dated[A]{Period: Period{Start: cursor, End: within.End}, Value: fill})
	}
	return covered
}
