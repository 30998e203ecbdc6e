/*
input.go - What one charge version year needs and how the engine is tuned

PURPOSE:
  Input is the already-loaded working set for a single charge version in a
  single financial year. Nothing in it is fetched lazily; the engine never
  performs I/O.

  Options carries the tunable business rules: which tertiary purposes are
  two-part tariff, which agreement enables it, which agreement codes are
  reported, and the return unit divisor.

SEE ALSO:
  - engine.go: consumes Input
  - factory/input.go: JSON → Input
*/
package billing

import (
	"fmt"

	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Input is the working set for one charge version year.
type Input struct {
	// ChargeVersion is nil when the source has no such charge version.
	ChargeVersion *chargeperiod.ChargeVersion
	FinancialYear int

	DocumentValidity generic.Period
	LicenceHolders   []generic.Dated[chargeperiod.LicenceHolder]
	InvoiceAccounts  []generic.Dated[chargeperiod.InvoiceAccount]
	Agreements       []chargeperiod.Agreement

	ChargeElements []twopart.ChargeElement
	Returns        []twopart.Return
}

// Validate checks the structural preconditions the engine relies on.
func (in Input) Validate() error {
	if in.ChargeVersion == nil {
		return ErrChargeVersionNotFound
	}
	if in.FinancialYear <= 0 {
		return fmt.Errorf("%w: financial year %d", ErrInvalidInput, in.FinancialYear)
	}
	if err := in.ChargeVersion.Period.Validate(); err != nil {
		return fmt.Errorf("%w: charge version %s: %w", ErrInvalidInput, in.ChargeVersion.ID, err)
	}
	for _, a := range in.Agreements {
		if err := a.Period.Validate(); err != nil {
			return fmt.Errorf("%w: agreement %s: %w", ErrInvalidInput, a.Code, err)
		}
	}
	for _, e := range in.ChargeElements {
		if err := e.AbstractionPeriod.Validate(); err != nil {
			return fmt.Errorf("%w: charge element %s: %w", ErrInvalidInput, e.ID, err)
		}
		if e.AuthorisedAnnualQuantity.IsNegative() {
			return fmt.Errorf("%w: charge element %s: negative authorised quantity", ErrInvalidInput, e.ID)
		}
		if e.TimeLimit != nil {
			if err := e.TimeLimit.Validate(); err != nil {
				return fmt.Errorf("%w: charge element %s time limit: %w", ErrInvalidInput, e.ID, err)
			}
		}
	}
	for _, r := range in.Returns {
		if err := r.AbstractionPeriod.Validate(); err != nil {
			return fmt.Errorf("%w: return %s: %w", ErrInvalidInput, r.ID, err)
		}
		for _, l := range r.Lines {
			if err := l.Period.Validate(); err != nil {
				return fmt.Errorf("%w: return %s line: %w", ErrInvalidInput, r.ID, err)
			}
			if l.Period.IsOpen() {
				return fmt.Errorf("%w: return %s line: open-ended line", ErrInvalidInput, r.ID)
			}
		}
	}
	return nil
}

// =============================================================================
// OPTIONS
// =============================================================================

// Section127 is the agreement code that enables the two-part tariff.
const Section127 = "S127"

// DefaultAgreementCodes are reported on every sub-period.
var DefaultAgreementCodes = []string{Section127, "S130S", "S130T", "S130U", "S130W"}

// Options tunes the engine.
type Options struct {
	TwoPartTariff twopart.Options

	// Section127Code must be in force on a sub-period for its elements to
	// be billed under the two-part tariff. Empty disables the check.
	Section127Code string

	AgreementCodes []string
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	codes := make([]string, len(DefaultAgreementCodes))
	copy(codes, DefaultAgreementCodes)
	return Options{
		TwoPartTariff:  twopart.DefaultOptions(),
		Section127Code: Section127,
		AgreementCodes: codes,
	}
}
