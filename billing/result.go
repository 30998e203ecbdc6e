package billing

import (
	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Result is the two-part tariff outcome for one charge version year.
type Result struct {
	ChargeVersionID string
	LicenceRef      string
	FinancialYear   int

	// ReturnsError is set when the returns could not be matched at all.
	ReturnsError twopart.ErrorCode

	SubPeriods []SubPeriodResult
}

// SubPeriodResult is one sub-period with its billed elements.
type SubPeriodResult struct {
	chargeperiod.SubPeriod

	// TwoPartTariff is set when the enabling agreement is in force.
	TwoPartTariff bool

	Elements []ElementResult
}

// ElementResult is the billed quantity for one prepared element.
// ActualReturnQuantity is null when the returns could not be matched.
type ElementResult struct {
	Element              twopart.PreparedElement
	ActualReturnQuantity decimal.NullDecimal
	Error                twopart.ErrorCode
}

// ElementErrors counts element results per error code.
func (r *Result) ElementErrors() map[twopart.ErrorCode]int {
	counts := map[twopart.ErrorCode]int{}
	for _, sp := range r.SubPeriods {
		for _, e := range sp.Elements {
			if e.Error != twopart.ErrorNone {
				counts[e.Error]++
			}
		}
	}
	return counts
}

// ElementCount is the number of element results across all sub-periods.
func (r *Result) ElementCount() int {
	n := 0
	for _, sp := range r.SubPeriods {
		n += len(sp.Elements)
	}
	return n
}
