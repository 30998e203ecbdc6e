package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Run is a stored result, flattened into one line per billed element per
// sub-period: the shape the invoice and transaction records are built from.
type Run struct {
	ID              string
	ChargeVersionID string
	LicenceRef      string
	FinancialYear   int
	CreatedAt       time.Time
	ReturnsError    twopart.ErrorCode
	Lines           []RunLine
}

// RunLine is one element billed in one sub-period.
type RunLine struct {
	Period generic.Period

	LicenceHolderCompanyID string
	InvoiceAccountID       string
	InvoiceAccountNumber   string
	Agreements             map[string]bool

	ElementID   string
	Description string
	Purpose     string
	Source      twopart.Source
	Season      twopart.Season
	Loss        twopart.Loss

	TotalDays    int
	BillableDays int

	AuthorisedQuantity decimal.Decimal
	BillableQuantity   decimal.NullDecimal
	ActualQuantity     decimal.NullDecimal
	Error              twopart.ErrorCode
}

// NewRun maps a result to its stored form. Sub-periods without the
// two-part tariff produce no lines.
func NewRun(id string, result *Result, createdAt time.Time) Run {
	run := Run{
		ID:              id,
		ChargeVersionID: result.ChargeVersionID,
		LicenceRef:      result.LicenceRef,
		FinancialYear:   result.FinancialYear,
		CreatedAt:       createdAt,
		ReturnsError:    result.ReturnsError,
	}
	for _, sp := range result.SubPeriods {
		for _, er := range sp.Elements {
			el := er.Element
			run.Lines = append(run.Lines, RunLine{
				Period:                 sp.Period,
				LicenceHolderCompanyID: sp.LicenceHolder.CompanyID,
				InvoiceAccountID:       sp.InvoiceAccount.ID,
				InvoiceAccountNumber:   sp.InvoiceAccount.Number,
				Agreements:             sp.Agreements,
				ElementID:              el.ID,
				Description:            el.Description,
				Purpose:                el.Purpose.Tertiary,
				Source:                 el.Source,
				Season:                 el.Season,
				Loss:                   el.Loss,
				TotalDays:              el.TotalDays,
				BillableDays:           el.BillableDays,
				AuthorisedQuantity:     el.ProRataAuthorisedQuantity,
				BillableQuantity:       el.ProRataBillableQuantity,
				ActualQuantity:         er.ActualReturnQuantity,
				Error:                  er.Error,
			})
		}
	}
	return run
}

// OverAbstracted reports whether any line is flagged for over-abstraction.
func (r Run) OverAbstracted() bool {
	for _, l := range r.Lines {
		if l.Error == twopart.ErrorOverAbstraction {
			return true
		}
	}
	return false
}
