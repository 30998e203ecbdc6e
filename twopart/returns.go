package twopart

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RETURN PREPARATION
// =============================================================================

// PrepareReturns filters and normalises the returns for a licence before
// matching.
//
// Void returns are ignored and only returns with a two-part tariff purpose
// are kept. The surviving set must be fully completed and free of queries,
// otherwise a *ReturnsNotReadyError lists every blocking return. Lines
// without a positive reading, or lying wholly outside the return's
// abstraction period, are dropped; quantities are converted to megalitres.
func PrepareReturns(returns []Return, opts Options) ([]PreparedReturn, error) {
	relevant := make([]Return, 0, len(returns))
	for _, r := range returns {
		if r.Status == StatusVoid || !hasTwoPartTariffPurpose(r, opts) {
			continue
		}
		relevant = append(relevant, r)
	}
	if len(relevant) == 0 {
		return nil, ErrNoReturnsForMatching
	}

	if err := checkReady(relevant); err != nil {
		return nil, err
	}

	divisor := opts.divisor()
	prepared := make([]PreparedReturn, 0, len(relevant))
	for _, r := range relevant {
		prepared = append(prepared, prepareReturn(r, divisor))
	}
	return prepared, nil
}

func hasTwoPartTariffPurpose(r Return, opts Options) bool {
	for _, code := range r.PurposeCodes {
		if opts.IsTwoPartTariffPurpose(code) {
			return true
		}
	}
	return false
}

func checkReady(returns []Return) error {
	due := 0
	var faults []ReturnFault
	for _, r := range returns {
		switch {
		case r.Status == StatusDue:
			due++
			faults = append(faults, ReturnFault{ReturnID: r.ID, Code: ErrorSomeReturnsDue})
		case r.UnderQuery:
			faults = append(faults, ReturnFault{ReturnID: r.ID, Code: ErrorUnderQuery})
		case r.Status != StatusCompleted:
			faults = append(faults, ReturnFault{ReturnID: r.ID, Code: ErrorReceived})
		}
	}
	if due == len(returns) {
		return &ReturnsNotReadyError{AllDue: true, Faults: faults}
	}
	if len(faults) > 0 {
		return &ReturnsNotReadyError{Faults: faults}
	}
	return nil
}

func prepareReturn(r Return, divisor decimal.Decimal) PreparedReturn {
	codes := make([]string, len(r.PurposeCodes))
	copy(codes, r.PurposeCodes)

	lines := make([]PreparedLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		if !l.Quantity.Valid || !l.Quantity.Decimal.IsPositive() {
			continue
		}
		if r.AbstractionPeriod.DaysIn(l.Period) == 0 {
			continue
		}
		lines = append(lines, PreparedLine{
			Period:            l.Period,
			Quantity:          l.Quantity.Decimal.Div(divisor),
			QuantityAllocated: decimal.Zero,
		})
	}

	return PreparedReturn{
		ID:                r.ID,
		PurposeCodes:      codes,
		AbstractionPeriod: r.AbstractionPeriod,
		Lines:             lines,
	}
}
