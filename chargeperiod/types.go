// Package chargeperiod assembles the billing sub-periods of a charge version
// in a financial year: the stretches of time over which the licence holder,
// the invoice account and every agreement flag stay the same.
package chargeperiod

import (
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// ChargeVersion is the charging configuration in force over a date range.
type ChargeVersion struct {
	ID         string
	LicenceRef string
	Period     generic.Period
}

// LicenceHolder is the company holding the licence document.
type LicenceHolder struct {
	CompanyID   string
	CompanyName string
	ContactID   string
	AddressID   string
}

// InvoiceAccount is the account billed for the licence.
type InvoiceAccount struct {
	ID        string
	Number    string
	CompanyID string
	AddressID string
}

// Agreement is a licence agreement (section 127, 130, ...) in force over a
// period.
type Agreement struct {
	Code   string
	Period generic.Period
}

// Input is everything the assembler needs for one charge version year.
type Input struct {
	ChargeVersion ChargeVersion
	FinancialYear int

	// DocumentValidity bounds the licence document. A zero value is
	// unbounded.
	DocumentValidity generic.Period

	LicenceHolders  []generic.Dated[LicenceHolder]
	InvoiceAccounts []generic.Dated[InvoiceAccount]
	Agreements      []Agreement

	// AgreementCodes are always reported, present or not. Codes found in
	// Agreements are reported too.
	AgreementCodes []string
}

// SubPeriod is a range of constant billing attributes.
type SubPeriod struct {
	ChargeVersionID string
	LicenceRef      string
	FinancialYear   int

	// Original is the charge version's own range.
	Original generic.Period
	Period   generic.Period

	LicenceHolder  LicenceHolder
	InvoiceAccount InvoiceAccount
	Agreements     map[string]bool
}

// HasAgreement reports whether the agreement code is in force.
func (s SubPeriod) HasAgreement(code string) bool { return s.Agreements[code] }

// MissingLicenceHolder reports a gap in the licence holder history.
func (s SubPeriod) MissingLicenceHolder() bool { return s.LicenceHolder.CompanyID == "" }

// MissingInvoiceAccount reports a gap in the invoice account history.
func (s SubPeriod) MissingInvoiceAccount() bool { return s.InvoiceAccount.ID == "" }

func (s SubPeriod) withAgreement(code string, present bool) SubPeriod {
	flags := make(map[string]bool, len(s.Agreements)+1)
	for k, v := range s.Agreements {
		flags[k] = v
	}
	flags[code] = present
	s.Agreements = flags
	return s
}
