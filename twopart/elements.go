package twopart

import (
	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// CHARGE ELEMENT PREPARATION
// =============================================================================

// IsEligible reports whether an element is billed under the two-part
// tariff: a two-part tariff purpose with section 127 not disabled.
func IsEligible(e ChargeElement, opts Options) bool {
	return !e.Section127Disabled && opts.IsTwoPartTariffPurpose(e.Purpose.Tertiary)
}

// PrepareElements constrains the eligible elements to the sub-period and
// computes their day counts and pro-rata quantities. Elements whose time
// limit does not overlap the sub-period are left out.
//
// TotalDays counts the abstraction days in the financial year; BillableDays
// counts the abstraction days in the effective range. An element with no
// abstraction day in its chargeable range is kept with BillableDays 0 and
// zero quantities.
func PrepareElements(sub, financialYear generic.Period, elements []ChargeElement, opts Options) []PreparedElement {
	prepared := make([]PreparedElement, 0, len(elements))
	for _, e := range elements {
		if !IsEligible(e, opts) {
			continue
		}
		chargeable := sub
		if e.TimeLimit != nil {
			var ok bool
			if chargeable, ok = chargeable.Intersect(*e.TimeLimit); !ok {
				continue
			}
		}
		prepared = append(prepared, prepareElement(e, chargeable, financialYear))
	}
	return prepared
}

func prepareElement(e ChargeElement, chargeable, financialYear generic.Period) PreparedElement {
	p := PreparedElement{
		ChargeElement:             e,
		Effective:                 chargeable,
		TotalDays:                 e.AbstractionPeriod.DaysIn(financialYear),
		ActualReturnQuantity:      decimal.Zero,
		MaxPossibleReturnQuantity: decimal.Zero,
		ProRataAuthorisedQuantity: decimal.Zero,
	}

	effective, ok := e.AbstractionPeriod.Bounds(chargeable)
	if !ok {
		if e.BillableAnnualQuantity.Valid {
			p.ProRataBillableQuantity = decimal.NewNullDecimal(decimal.Zero)
		}
		return p
	}

	p.Effective = effective
	p.BillableDays = e.AbstractionPeriod.DaysIn(effective)
	p.ProRataAuthorisedQuantity = generic.ProRata(e.AuthorisedAnnualQuantity, p.BillableDays, p.TotalDays)
	if e.BillableAnnualQuantity.Valid {
		p.ProRataBillableQuantity = decimal.NewNullDecimal(
			generic.ProRata(e.BillableAnnualQuantity.Decimal, p.BillableDays, p.TotalDays),
		)
	}
	return p
}
