package twopart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// RESHUFFLE
// =============================================================================

// Allocation is the final quantity billed against one element.
type Allocation struct {
	ElementID            string
	ActualReturnQuantity decimal.Decimal
	Error                ErrorCode
}

// Reshuffle redistributes matched quantities within each purpose group so
// the highest-priority elements are filled first.
//
// Within a group the matched total is handed out in priority order, each
// element receiving min(remaining, max allowable, max possible), where a
// base element's max possible includes that of its time-limited sub
// elements. Anything left over is billed against the first-priority element
// and every element of the group is flagged over_abstraction.
//
// Allocations are returned in input order.
func Reshuffle(elements []PreparedElement) []Allocation {
	allocations := make([]Allocation, len(elements))
	for i, e := range elements {
		allocations[i] = Allocation{ElementID: e.ID, ActualReturnQuantity: decimal.Zero}
	}

	for _, group := range groupByPurpose(elements) {
		reshuffleGroup(elements, group, allocations)
	}
	return allocations
}

// groupByPurpose returns element indexes per tertiary purpose in order of
// first appearance.
func groupByPurpose(elements []PreparedElement) [][]int {
	index := map[string]int{}
	var groups [][]int
	for i, e := range elements {
		g, ok := index[e.Purpose.Tertiary]
		if !ok {
			g = len(groups)
			index[e.Purpose.Tertiary] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func reshuffleGroup(elements []PreparedElement, group []int, out []Allocation) {
	order := slices.Clone(group)
	slices.SortStableFunc(order, func(a, b int) int {
		return ComparePriority(elements[a], elements[b])
	})

	maxPossible := familyMaxPossible(elements, order)

	remaining := decimal.Zero
	for _, i := range group {
		remaining = remaining.Add(elements[i].ActualReturnQuantity)
	}

	for _, i := range order {
		give := generic.NonNegative(generic.MinDecimal(remaining, elements[i].MaxAllowableQuantity(), maxPossible[i]))
		out[i].ActualReturnQuantity = give
		remaining = remaining.Sub(give)
	}

	if !remaining.IsPositive() {
		return
	}
	first := order[0]
	out[first].ActualReturnQuantity = out[first].ActualReturnQuantity.Add(remaining)
	for _, i := range group {
		out[i].Error = ErrorOverAbstraction
	}
}

// familyMaxPossible attaches every time-limited element to the first base
// element, in priority order, with the same source and season whose
// abstraction window contains its own, and adds the sub's max possible
// quantity to the base's.
func familyMaxPossible(elements []PreparedElement, order []int) map[int]decimal.Decimal {
	maxPossible := make(map[int]decimal.Decimal, len(order))
	for _, i := range order {
		maxPossible[i] = elements[i].MaxPossibleReturnQuantity
	}

	for _, s := range order {
		sub := elements[s]
		if !sub.IsTimeLimited() {
			continue
		}
		for _, b := range order {
			base := elements[b]
			if base.IsTimeLimited() || !isSubElementOf(sub, base) {
				continue
			}
			maxPossible[b] = maxPossible[b].Add(sub.MaxPossibleReturnQuantity)
			break
		}
	}
	return maxPossible
}

func isSubElementOf(sub, base PreparedElement) bool {
	return sub.Source == base.Source &&
		sub.Season == base.Season &&
		sub.AbstractionPeriod.Within(base.AbstractionPeriod)
}
