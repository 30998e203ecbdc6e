package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// REQUEST/RESPONSE DTOs
// =============================================================================

// Quantities are decimals and serialise as JSON strings ("12.345"), null
// when no quantity could be matched.

// StagedDTO acknowledges a staged input.
type StagedDTO struct {
	ChargeVersionID string `json:"chargeVersionId"`
	FinancialYear   int    `json:"financialYear"`
	ChargeElements  int    `json:"chargeElements"`
	Returns         int    `json:"returns"`
}

// RunDTO is a stored two-part tariff run.
type RunDTO struct {
	ID              string       `json:"id"`
	ChargeVersionID string       `json:"chargeVersionId"`
	LicenceRef      string       `json:"licenceRef"`
	FinancialYear   int          `json:"financialYear"`
	CreatedAt       time.Time    `json:"createdAt"`
	ReturnsError    *string      `json:"returnsError"`
	OverAbstracted  bool         `json:"overAbstracted"`
	Lines           []RunLineDTO `json:"lines"`
}

// RunLineDTO is one billed element in one sub-period.
type RunLineDTO struct {
	StartDate              string              `json:"startDate"`
	EndDate                string              `json:"endDate"`
	LicenceHolderCompanyID string              `json:"licenceHolderCompanyId,omitempty"`
	InvoiceAccountID       string              `json:"invoiceAccountId,omitempty"`
	InvoiceAccountNumber   string              `json:"invoiceAccountNumber,omitempty"`
	Agreements             map[string]bool     `json:"agreements"`
	ChargeElementID        string              `json:"chargeElementId"`
	Description            string              `json:"description,omitempty"`
	Purpose                string              `json:"purpose"`
	Source                 string              `json:"source"`
	Season                 string              `json:"season"`
	Loss                   string              `json:"loss"`
	TotalDays              int                 `json:"totalDays"`
	BillableDays           int                 `json:"billableDays"`
	AuthorisedQuantity     decimal.Decimal     `json:"authorisedAnnualQuantity"`
	BillableQuantity       decimal.NullDecimal `json:"billableAnnualQuantity"`
	ActualReturnQuantity   decimal.NullDecimal `json:"actualReturnQuantity"`
	Error                  *string             `json:"error"`
}

// ResultDTO is an unstored computation.
type ResultDTO struct {
	ChargeVersionID string         `json:"chargeVersionId"`
	LicenceRef      string         `json:"licenceRef"`
	FinancialYear   int            `json:"financialYear"`
	ReturnsError    *string        `json:"returnsError"`
	SubPeriods      []SubPeriodDTO `json:"subPeriods"`
}

// SubPeriodDTO is one range of constant billing attributes.
type SubPeriodDTO struct {
	StartDate       string             `json:"startDate"`
	EndDate         string             `json:"endDate"`
	LicenceHolder   LicenceHolderDTO   `json:"licenceHolder"`
	InvoiceAccount  InvoiceAccountDTO  `json:"invoiceAccount"`
	Agreements      map[string]bool    `json:"agreements"`
	IsTwoPartTariff bool               `json:"isTwoPartTariff"`
	ChargeElements  []ChargeElementDTO `json:"chargeElements"`
}

// LicenceHolderDTO identifies the licence holder of a sub-period.
type LicenceHolderDTO struct {
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName,omitempty"`
}

// InvoiceAccountDTO identifies the invoice account of a sub-period.
type InvoiceAccountDTO struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
}

// ChargeElementDTO is a prepared and matched charge element.
type ChargeElementDTO struct {
	ID                        string              `json:"id"`
	Description               string              `json:"description,omitempty"`
	Purpose                   string              `json:"purpose"`
	Source                    string              `json:"source"`
	Season                    string              `json:"season"`
	Loss                      string              `json:"loss"`
	StartDate                 string              `json:"startDate"`
	EndDate                   string              `json:"endDate"`
	TotalDays                 int                 `json:"totalDays"`
	BillableDays              int                 `json:"billableDays"`
	AuthorisedAnnualQuantity  decimal.Decimal     `json:"authorisedAnnualQuantity"`
	BillableAnnualQuantity    decimal.NullDecimal `json:"billableAnnualQuantity"`
	MaxAllowableQuantity      decimal.Decimal     `json:"maxAllowableQuantity"`
	MaxPossibleReturnQuantity decimal.Decimal     `json:"maxPossibleReturnQuantity"`
	ActualReturnQuantity      decimal.NullDecimal `json:"actualReturnQuantity"`
	Error                     *string             `json:"error"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ChargeVersionID string `json:"chargeVersionId"`
	FinancialYear   int    `json:"financialYear"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRunDTO(run billing.Run) RunDTO {
	dto := RunDTO{
		ID:              run.ID,
		ChargeVersionID: run.ChargeVersionID,
		LicenceRef:      run.LicenceRef,
		FinancialYear:   run.FinancialYear,
		CreatedAt:       run.CreatedAt,
		ReturnsError:    optional(string(run.ReturnsError)),
		OverAbstracted:  run.OverAbstracted(),
		Lines:           make([]RunLineDTO, len(run.Lines)),
	}
	for i, l := range run.Lines {
		dto.Lines[i] = RunLineDTO{
			StartDate:              l.Period.Start.String(),
			EndDate:                l.Period.End.String(),
			LicenceHolderCompanyID: l.LicenceHolderCompanyID,
			InvoiceAccountID:       l.InvoiceAccountID,
			InvoiceAccountNumber:   l.InvoiceAccountNumber,
			Agreements:             l.Agreements,
			ChargeElementID:        l.ElementID,
			Description:            l.Description,
			Purpose:                l.Purpose,
			Source:                 string(l.Source),
			Season:                 string(l.Season),
			Loss:                   string(l.Loss),
			TotalDays:              l.TotalDays,
			BillableDays:           l.BillableDays,
			AuthorisedQuantity:     l.AuthorisedQuantity,
			BillableQuantity:       l.BillableQuantity,
			ActualReturnQuantity:   l.ActualQuantity,
			Error:                  optional(string(l.Error)),
		}
	}
	return dto
}

func toResultDTO(result *billing.Result) ResultDTO {
	dto := ResultDTO{
		ChargeVersionID: result.ChargeVersionID,
		LicenceRef:      result.LicenceRef,
		FinancialYear:   result.FinancialYear,
		ReturnsError:    optional(string(result.ReturnsError)),
		SubPeriods:      make([]SubPeriodDTO, len(result.SubPeriods)),
	}
	for i, sp := range result.SubPeriods {
		dto.SubPeriods[i] = toSubPeriodDTO(sp)
	}
	return dto
}

func toSubPeriodDTO(sp billing.SubPeriodResult) SubPeriodDTO {
	dto := SubPeriodDTO{
		StartDate:       sp.Period.Start.String(),
		EndDate:         sp.Period.End.String(),
		LicenceHolder:   toLicenceHolderDTO(sp.LicenceHolder),
		InvoiceAccount:  InvoiceAccountDTO{ID: sp.InvoiceAccount.ID, Number: sp.InvoiceAccount.Number},
		Agreements:      sp.Agreements,
		IsTwoPartTariff: sp.TwoPartTariff,
		ChargeElements:  make([]ChargeElementDTO, len(sp.Elements)),
	}
	for i, er := range sp.Elements {
		el := er.Element
		dto.ChargeElements[i] = ChargeElementDTO{
			ID:                        el.ID,
			Description:               el.Description,
			Purpose:                   el.Purpose.Tertiary,
			Source:                    string(el.Source),
			Season:                    string(el.Season),
			Loss:                      string(el.Loss),
			StartDate:                 el.Effective.Start.String(),
			EndDate:                   el.Effective.End.String(),
			TotalDays:                 el.TotalDays,
			BillableDays:              el.BillableDays,
			AuthorisedAnnualQuantity:  el.ProRataAuthorisedQuantity,
			BillableAnnualQuantity:    el.ProRataBillableQuantity,
			MaxAllowableQuantity:      el.MaxAllowableQuantity(),
			MaxPossibleReturnQuantity: el.MaxPossibleReturnQuantity.Round(generic.BillingPlaces),
			ActualReturnQuantity:      er.ActualReturnQuantity,
			Error:                     optional(string(er.Error)),
		}
	}
	return dto
}

func toLicenceHolderDTO(h chargeperiod.LicenceHolder) LicenceHolderDTO {
	return LicenceHolderDTO{CompanyID: h.CompanyID, CompanyName: h.CompanyName}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
