// Package twopart implements the two-part tariff rules: preparing charge
// elements and returns for a billing sub-period, matching return quantities
// to elements and reshuffling the matched quantities by element priority.
package twopart

import (
	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// CHARGE ELEMENT
// =============================================================================

// Purpose is the primary/secondary/tertiary use classification. The
// tertiary code decides two-part tariff eligibility and matching.
type Purpose struct {
	Primary   string
	Secondary string
	Tertiary  string
}

// Source of the abstracted water.
type Source string

const (
	SourceSupported   Source = "supported"
	SourceUnsupported Source = "unsupported"
	SourceTidal       Source = "tidal"
	SourceKielder     Source = "kielder"
)

// Season in which the element is charged.
type Season string

const (
	SeasonSummer  Season = "summer"
	SeasonWinter  Season = "winter"
	SeasonAllYear Season = "all year"
)

// Loss category of the element.
type Loss string

const (
	LossHigh          Loss = "high"
	LossMedium        Loss = "medium"
	LossLow           Loss = "low"
	LossVeryLow       Loss = "very low"
	LossNonChargeable Loss = "non-chargeable"
)

// ChargeElement is one chargeable line of a charge version.
type ChargeElement struct {
	ID                       string
	Description              string
	Purpose                  Purpose
	Source                   Source
	Season                   Season
	Loss                     Loss
	AbstractionPeriod        AbstractionPeriod
	AuthorisedAnnualQuantity decimal.Decimal
	BillableAnnualQuantity   decimal.NullDecimal

	// TimeLimit restricts the element to a window within the charge version.
	TimeLimit *generic.Period

	// Section127Disabled opts the element out of the two-part tariff even
	// when the licence has a section 127 agreement.
	Section127Disabled bool
}

// IsTimeLimited reports whether the element carries a time-limit window.
func (e ChargeElement) IsTimeLimited() bool { return e.TimeLimit != nil }

// PreparedElement is a charge element constrained to one sub-period.
type PreparedElement struct {
	ChargeElement

	// Effective is the chargeable range clipped to the first and last
	// abstraction day within it.
	Effective generic.Period

	TotalDays    int
	BillableDays int

	ProRataAuthorisedQuantity decimal.Decimal
	ProRataBillableQuantity   decimal.NullDecimal

	ActualReturnQuantity      decimal.Decimal
	MaxPossibleReturnQuantity decimal.Decimal
}

// MaxAllowableQuantity is the pro-rata billable quantity when set,
// otherwise the pro-rata authorised quantity.
func (e PreparedElement) MaxAllowableQuantity() decimal.Decimal {
	if e.ProRataBillableQuantity.Valid {
		return e.ProRataBillableQuantity.Decimal
	}
	return e.ProRataAuthorisedQuantity
}

// =============================================================================
// RETURNS
// =============================================================================

// ReturnStatus is the submission state of a return.
type ReturnStatus string

const (
	StatusDue       ReturnStatus = "due"
	StatusReceived  ReturnStatus = "received"
	StatusCompleted ReturnStatus = "completed"
	StatusVoid      ReturnStatus = "void"
)

// Return is a licensee's submitted (or outstanding) abstraction return.
type Return struct {
	ID                string
	LicenceRef        string
	Period            generic.Period
	Status            ReturnStatus
	UnderQuery        bool
	PurposeCodes      []string // tertiary purpose codes
	AbstractionPeriod AbstractionPeriod
	Lines             []ReturnLine
}

// ReturnLine is one metered reading. Quantity is in cubic metres and may be
// absent (nil reading).
type ReturnLine struct {
	Period   generic.Period
	Quantity decimal.NullDecimal
}

// PreparedReturn is a completed return ready for matching, quantities in
// megalitres.
type PreparedReturn struct {
	ID                string
	PurposeCodes      []string
	AbstractionPeriod AbstractionPeriod
	Lines             []PreparedLine
}

// HasPurpose reports whether the return covers the tertiary purpose code.
func (r PreparedReturn) HasPurpose(code string) bool {
	for _, c := range r.PurposeCodes {
		if c == code {
			return true
		}
	}
	return false
}

// TotalQuantity sums line quantities.
func (r PreparedReturn) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// PreparedLine tracks how much of a reading has been matched.
// Invariant: 0 <= QuantityAllocated <= Quantity.
type PreparedLine struct {
	Period            generic.Period
	Quantity          decimal.Decimal
	QuantityAllocated decimal.Decimal
}

// Unallocated is the part of the reading not yet matched.
func (l PreparedLine) Unallocated() decimal.Decimal {
	return generic.NonNegative(l.Quantity.Sub(l.QuantityAllocated))
}

// =============================================================================
// OPTIONS
// =============================================================================

// DefaultPurposeCodes are the tertiary purpose codes billed under the
// two-part tariff (spray irrigation variants).
var DefaultPurposeCodes = []string{"380", "390", "400", "410", "420"}

// Options controls eligibility and unit conversion.
type Options struct {
	// PurposeCodes lists the tertiary purpose codes in scope.
	PurposeCodes []string

	// UnitDivisor converts return readings to megalitres.
	UnitDivisor decimal.Decimal
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	codes := make([]string, len(DefaultPurposeCodes))
	copy(codes, DefaultPurposeCodes)
	return Options{
		PurposeCodes: codes,
		UnitDivisor:  decimal.NewFromInt(1000),
	}
}

// IsTwoPartTariffPurpose reports whether a tertiary purpose code is billed
// under the two-part tariff.
func (o Options) IsTwoPartTariffPurpose(code string) bool {
	for _, c := range o.PurposeCodes {
		if c == code {
			return true
		}
	}
	return false
}

func (o Options) divisor() decimal.Decimal {
	if o.UnitDivisor.IsPositive() {
		return o.UnitDivisor
	}
	return decimal.NewFromInt(1000)
}
