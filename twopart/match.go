package twopart

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// QUANTITY MATCHING
// =============================================================================

// share is the part of one return line attributable to one element.
type share struct {
	element   int
	ret       int
	line      int
	quantity  decimal.Decimal
	allocated decimal.Decimal
}

// Match allocates return line quantities to elements and returns updated
// copies of both; the inputs are not modified.
//
// Elements are visited in ascending order of billable days so the most
// constrained elements are served first. Each line shares itself between
// elements by the abstraction days it has in common with each element's
// effective range. A first pass caps every element at its max allowable
// quantity. A second pass hands out whatever is still unallocated of each
// share without the cap, so measured water is never lost and the
// Reshuffler can see over-abstraction.
func Match(elements []PreparedElement, returns []PreparedReturn) ([]PreparedElement, []PreparedReturn) {
	els := make([]PreparedElement, len(elements))
	copy(els, elements)
	rets := cloneReturns(returns)

	shares := collectShares(els, rets)

	// pass 1: within allowance
	for i := range shares {
		s := &shares[i]
		s.allocated = allocateWithinAllowance(&els[s.element], &rets[s.ret].Lines[s.line], s.quantity)
	}

	// pass 2: the rest of each share
	for i := range shares {
		s := &shares[i]
		line := &rets[s.ret].Lines[s.line]
		extra := generic.MinDecimal(line.Unallocated(), s.quantity.Sub(s.allocated))
		if !extra.IsPositive() {
			continue
		}
		allocate(&els[s.element], line, extra)
		s.allocated = s.allocated.Add(extra)
	}

	return els, rets
}

// collectShares lists every element/line pair with a positive share and
// accumulates each element's MaxPossibleReturnQuantity.
func collectShares(els []PreparedElement, rets []PreparedReturn) []share {
	order := make([]int, len(els))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := els[order[a]], els[order[b]]
		if ea.BillableDays != eb.BillableDays {
			return ea.BillableDays < eb.BillableDays
		}
		return ea.ID < eb.ID
	})

	var shares []share
	for _, ei := range order {
		el := &els[ei]
		el.MaxPossibleReturnQuantity = decimal.Zero
		if el.BillableDays == 0 {
			continue
		}
		for ri := range rets {
			if !rets[ri].HasPurpose(el.Purpose.Tertiary) {
				continue
			}
			for li, line := range rets[ri].Lines {
				q, ok := lineShare(*el, line)
				if !ok {
					continue
				}
				el.MaxPossibleReturnQuantity = el.MaxPossibleReturnQuantity.Add(q)
				shares = append(shares, share{element: ei, ret: ri, line: li, quantity: q, allocated: decimal.Zero})
			}
		}
	}
	return shares
}

// lineShare is line.Quantity × (abstraction days the line shares with the
// element's effective range) / (days in the line).
func lineShare(el PreparedElement, line PreparedLine) (decimal.Decimal, bool) {
	overlap, ok := line.Period.Intersect(el.Effective)
	if !ok {
		return decimal.Zero, false
	}
	days := el.AbstractionPeriod.DaysIn(overlap)
	if days == 0 {
		return decimal.Zero, false
	}
	q := generic.Scale(line.Quantity, days, line.Period.Length())
	return q, q.IsPositive()
}

// allocateWithinAllowance moves min(unallocated, share, headroom) from the
// line to the element and returns the amount moved.
func allocateWithinAllowance(el *PreparedElement, line *PreparedLine, shareQty decimal.Decimal) decimal.Decimal {
	headroom := generic.NonNegative(el.MaxAllowableQuantity().Sub(el.ActualReturnQuantity))
	qty := generic.MinDecimal(line.Unallocated(), shareQty, headroom)
	if !qty.IsPositive() {
		return decimal.Zero
	}
	allocate(el, line, qty)
	return qty
}

func allocate(el *PreparedElement, line *PreparedLine, qty decimal.Decimal) {
	el.ActualReturnQuantity = el.ActualReturnQuantity.Add(qty)
	line.QuantityAllocated = line.QuantityAllocated.Add(qty)
}

func cloneReturns(returns []PreparedReturn) []PreparedReturn {
	out := make([]PreparedReturn, len(returns))
	for i, r := range returns {
		out[i] = r
		out[i].Lines = make([]PreparedLine, len(r.Lines))
		copy(out[i].Lines, r.Lines)
	}
	return out
}
