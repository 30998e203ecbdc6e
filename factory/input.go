/*
Package factory provides JSON to Go billing input conversion.

PURPOSE:
  Converts the camel-case JSON working set of a charge version year into
  billing.Input, and back. The API stages inputs through it and the sqlite
  store keeps them in this form.

JSON SCHEMA:
  {
    "chargeVersion": {"id": "cv-1", "licenceRef": "01/123",
                      "startDate": "2018-04-01", "endDate": null},
    "financialYear": 2019,
    "documentValidity": {"startDate": "2010-01-01"},
    "licenceHolderRoles": [
      {"startDate": "2010-01-01", "companyId": "c1", "companyName": "Acme"}
    ],
    "invoiceAccountRoles": [
      {"startDate": "2010-01-01", "invoiceAccountId": "ia-1",
       "invoiceAccountNumber": "A00000001A", "companyId": "c1"}
    ],
    "agreements": [{"code": "S127", "startDate": "2015-04-01"}],
    "chargeElements": [{
      "id": "e1", "purposeTertiary": "400", "source": "unsupported",
      "season": "summer", "loss": "high",
      "abstractionPeriod": {"startDay": 1, "startMonth": 4, "endDay": 31, "endMonth": 10},
      "authorisedAnnualQuantity": "100", "billableAnnualQuantity": null,
      "timeLimitedStartDate": null, "timeLimitedEndDate": null,
      "isSection127AgreementEnabled": true
    }],
    "returns": [{
      "id": "r1", "status": "completed", "isUnderQuery": false,
      "startDate": "2018-04-01", "endDate": "2019-03-31",
      "purposes": ["400"],
      "abstractionPeriod": {"startDay": 1, "startMonth": 4, "endDay": 31, "endMonth": 10},
      "lines": [{"startDate": "2018-04-01", "endDate": "2018-04-30", "quantity": 1234.5}]
    }]
  }

  Dates are YYYY-MM-DD; a missing or null end date is open-ended.
  Quantities may be JSON numbers or strings and are read as exact decimals.
  Return line quantities are cubic metres.

USAGE:
  f := factory.NewInputFactory()
  in, err := f.ParseInput(body)
  data, err := f.EncodeInput(in)

SEE ALSO:
  - billing/input.go: Input type definition
  - api/handlers.go: staging endpoint
  - store/sqlite/sqlite.go: stored JSON payload
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// InputJSON is the JSON representation of a charge version year.
type InputJSON struct {
	ChargeVersion       *ChargeVersionJSON   `json:"chargeVersion"`
	FinancialYear       int                  `json:"financialYear"`
	DocumentValidity    *PeriodJSON          `json:"documentValidity,omitempty"`
	LicenceHolderRoles  []LicenceHolderJSON  `json:"licenceHolderRoles,omitempty"`
	InvoiceAccountRoles []InvoiceAccountJSON `json:"invoiceAccountRoles,omitempty"`
	Agreements          []AgreementJSON      `json:"agreements,omitempty"`
	ChargeElements      []ChargeElementJSON  `json:"chargeElements,omitempty"`
	Returns             []ReturnJSON         `json:"returns,omitempty"`
}

// PeriodJSON is an inclusive date range.
type PeriodJSON struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

// ChargeVersionJSON represents the charge version.
type ChargeVersionJSON struct {
	ID         string `json:"id"`
	LicenceRef string `json:"licenceRef,omitempty"`
	PeriodJSON
}

// LicenceHolderJSON represents one licence holder role.
type LicenceHolderJSON struct {
	PeriodJSON
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName,omitempty"`
	ContactID   string `json:"contactId,omitempty"`
	AddressID   string `json:"addressId,omitempty"`
}

// InvoiceAccountJSON represents one billing role.
type InvoiceAccountJSON struct {
	PeriodJSON
	InvoiceAccountID     string `json:"invoiceAccountId"`
	InvoiceAccountNumber string `json:"invoiceAccountNumber,omitempty"`
	CompanyID            string `json:"companyId,omitempty"`
	AddressID            string `json:"addressId,omitempty"`
}

// AgreementJSON represents a licence agreement.
type AgreementJSON struct {
	Code string `json:"code"`
	PeriodJSON
}

// AbstractionPeriodJSON represents a recurring day/month window.
type AbstractionPeriodJSON struct {
	StartDay   int `json:"startDay"`
	StartMonth int `json:"startMonth"`
	EndDay     int `json:"endDay"`
	EndMonth   int `json:"endMonth"`
}

// ChargeElementJSON represents a charge element.
type ChargeElementJSON struct {
	ID                           string                `json:"id"`
	Description                  string                `json:"description,omitempty"`
	PurposePrimary               string                `json:"purposePrimary,omitempty"`
	PurposeSecondary             string                `json:"purposeSecondary,omitempty"`
	PurposeTertiary              string                `json:"purposeTertiary"`
	Source                       string                `json:"source"`
	Season                       string                `json:"season,omitempty"`
	Loss                         string                `json:"loss,omitempty"`
	AbstractionPeriod            AbstractionPeriodJSON `json:"abstractionPeriod"`
	AuthorisedAnnualQuantity     decimal.Decimal       `json:"authorisedAnnualQuantity"`
	BillableAnnualQuantity       decimal.NullDecimal   `json:"billableAnnualQuantity"`
	TimeLimitedStartDate         string                `json:"timeLimitedStartDate,omitempty"`
	TimeLimitedEndDate           string                `json:"timeLimitedEndDate,omitempty"`
	IsSection127AgreementEnabled *bool                 `json:"isSection127AgreementEnabled,omitempty"`
}

// ReturnJSON represents an abstraction return.
type ReturnJSON struct {
	ID                string                `json:"id"`
	LicenceRef        string                `json:"licenceRef,omitempty"`
	Status            string                `json:"status"`
	IsUnderQuery      bool                  `json:"isUnderQuery,omitempty"`
	Purposes          []string              `json:"purposes"`
	AbstractionPeriod AbstractionPeriodJSON `json:"abstractionPeriod"`
	PeriodJSON
	Lines []ReturnLineJSON `json:"lines,omitempty"`
}

// ReturnLineJSON represents one metered reading in cubic metres.
type ReturnLineJSON struct {
	PeriodJSON
	Quantity decimal.NullDecimal `json:"quantity"`
}

// =============================================================================
// INPUT FACTORY
// =============================================================================

// InputFactory converts JSON inputs to Go structs.
type InputFactory struct{}

// NewInputFactory creates a new input factory.
func NewInputFactory() *InputFactory {
	return &InputFactory{}
}

// ParseInput parses JSON into a validated billing.Input.
func (f *InputFactory) ParseInput(data []byte) (billing.Input, error) {
	var ij InputJSON
	if err := json.Unmarshal(data, &ij); err != nil {
		return billing.Input{}, fmt.Errorf("%w: failed to parse input JSON: %w", billing.ErrInvalidInput, err)
	}
	in, err := f.FromJSON(ij)
	if err != nil {
		return billing.Input{}, err
	}
	if err := in.Validate(); err != nil {
		return billing.Input{}, err
	}
	return in, nil
}

// EncodeInput serialises an input.
func (f *InputFactory) EncodeInput(in billing.Input) ([]byte, error) {
	return json.Marshal(f.ToJSON(in))
}

// FromJSON converts InputJSON to billing.Input.
func (f *InputFactory) FromJSON(ij InputJSON) (billing.Input, error) {
	in := billing.Input{FinancialYear: ij.FinancialYear}

	if ij.ChargeVersion == nil {
		return billing.Input{}, fmt.Errorf("%w: chargeVersion is required", billing.ErrInvalidInput)
	}
	p, err := parsePeriod(ij.ChargeVersion.PeriodJSON, "chargeVersion")
	if err != nil {
		return billing.Input{}, err
	}
	in.ChargeVersion = &chargeperiod.ChargeVersion{
		ID:         ij.ChargeVersion.ID,
		LicenceRef: ij.ChargeVersion.LicenceRef,
		Period:     p,
	}

	if ij.DocumentValidity != nil {
		if in.DocumentValidity, err = parsePeriod(*ij.DocumentValidity, "documentValidity"); err != nil {
			return billing.Input{}, err
		}
	}

	for i, r := range ij.LicenceHolderRoles {
		p, err := parsePeriod(r.PeriodJSON, fmt.Sprintf("licenceHolderRoles[%d]", i))
		if err != nil {
			return billing.Input{}, err
		}
		in.LicenceHolders = append(in.LicenceHolders, generic.Dated[chargeperiod.LicenceHolder]{
			Period: p,
			Value: chargeperiod.LicenceHolder{
				CompanyID:   r.CompanyID,
				CompanyName: r.CompanyName,
				ContactID:   r.ContactID,
				AddressID:   r.AddressID,
			},
		})
	}

	for i, r := range ij.InvoiceAccountRoles {
		p, err := parsePeriod(r.PeriodJSON, fmt.Sprintf("invoiceAccountRoles[%d]", i))
		if err != nil {
			return billing.Input{}, err
		}
		in.InvoiceAccounts = append(in.InvoiceAccounts, generic.Dated[chargeperiod.InvoiceAccount]{
			Period: p,
			Value: chargeperiod.InvoiceAccount{
				ID:        r.InvoiceAccountID,
				Number:    r.InvoiceAccountNumber,
				CompanyID: r.CompanyID,
				AddressID: r.AddressID,
			},
		})
	}

	for i, a := range ij.Agreements {
		p, err := parsePeriod(a.PeriodJSON, fmt.Sprintf("agreements[%d]", i))
		if err != nil {
			return billing.Input{}, err
		}
		in.Agreements = append(in.Agreements, chargeperiod.Agreement{Code: a.Code, Period: p})
	}

	for i, ej := range ij.ChargeElements {
		el, err := parseChargeElement(ej, fmt.Sprintf("chargeElements[%d]", i))
		if err != nil {
			return billing.Input{}, err
		}
		in.ChargeElements = append(in.ChargeElements, el)
	}

	for i, rj := range ij.Returns {
		r, err := parseReturn(rj, fmt.Sprintf("returns[%d]", i))
		if err != nil {
			return billing.Input{}, err
		}
		in.Returns = append(in.Returns, r)
	}

	return in, nil
}

func parsePeriod(pj PeriodJSON, field string) (generic.Period, error) {
	start, err := generic.ParseDate(pj.StartDate)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%s.startDate: %w", field, err)
	}
	end, err := generic.ParseDate(pj.EndDate)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%s.endDate: %w", field, err)
	}
	p, err := generic.NewPeriod(start, end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%s: %w", field, err)
	}
	return p, nil
}

func parseAbstractionPeriod(aj AbstractionPeriodJSON) twopart.AbstractionPeriod {
	return twopart.AbstractionPeriod{
		StartDay:   aj.StartDay,
		StartMonth: aj.StartMonth,
		EndDay:     aj.EndDay,
		EndMonth:   aj.EndMonth,
	}
}

func parseChargeElement(ej ChargeElementJSON, field string) (twopart.ChargeElement, error) {
	source, err := parseSource(ej.Source)
	if err != nil {
		return twopart.ChargeElement{}, fmt.Errorf("%s.source: %w", field, err)
	}

	el := twopart.ChargeElement{
		ID:          ej.ID,
		Description: ej.Description,
		Purpose: twopart.Purpose{
			Primary:   ej.PurposePrimary,
			Secondary: ej.PurposeSecondary,
			Tertiary:  ej.PurposeTertiary,
		},
		Source:                   source,
		Season:                   twopart.Season(ej.Season),
		Loss:                     twopart.Loss(ej.Loss),
		AbstractionPeriod:        parseAbstractionPeriod(ej.AbstractionPeriod),
		AuthorisedAnnualQuantity: ej.AuthorisedAnnualQuantity,
		BillableAnnualQuantity:   ej.BillableAnnualQuantity,
	}

	// absent means enabled
	if ej.IsSection127AgreementEnabled != nil {
		el.Section127Disabled = !*ej.IsSection127AgreementEnabled
	}

	if ej.TimeLimitedStartDate != "" || ej.TimeLimitedEndDate != "" {
		limit, err := parsePeriod(PeriodJSON{StartDate: ej.TimeLimitedStartDate, EndDate: ej.TimeLimitedEndDate}, field+".timeLimited")
		if err != nil {
			return twopart.ChargeElement{}, err
		}
		el.TimeLimit = &limit
	}
	return el, nil
}

func parseSource(s string) (twopart.Source, error) {
	switch src := twopart.Source(s); src {
	case twopart.SourceSupported, twopart.SourceUnsupported, twopart.SourceTidal, twopart.SourceKielder:
		return src, nil
	default:
		return "", fmt.Errorf("%w: unknown source %q", billing.ErrInvalidInput, s)
	}
}

func parseReturnStatus(s string) (twopart.ReturnStatus, error) {
	switch st := twopart.ReturnStatus(s); st {
	case twopart.StatusDue, twopart.StatusReceived, twopart.StatusCompleted, twopart.StatusVoid:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown return status %q", billing.ErrInvalidInput, s)
	}
}

func parseReturn(rj ReturnJSON, field string) (twopart.Return, error) {
	status, err := parseReturnStatus(rj.Status)
	if err != nil {
		return twopart.Return{}, fmt.Errorf("%s.status: %w", field, err)
	}

	r := twopart.Return{
		ID:                rj.ID,
		LicenceRef:        rj.LicenceRef,
		Status:            status,
		UnderQuery:        rj.IsUnderQuery,
		PurposeCodes:      append([]string(nil), rj.Purposes...),
		AbstractionPeriod: parseAbstractionPeriod(rj.AbstractionPeriod),
	}
	if rj.StartDate != "" {
		if r.Period, err = parsePeriod(rj.PeriodJSON, field); err != nil {
			return twopart.Return{}, err
		}
	}

	for i, lj := range rj.Lines {
		p, err := parsePeriod(lj.PeriodJSON, fmt.Sprintf("%s.lines[%d]", field, i))
		if err != nil {
			return twopart.Return{}, err
		}
		r.Lines = append(r.Lines, twopart.ReturnLine{Period: p, Quantity: lj.Quantity})
	}
	return r, nil
}

// =============================================================================
// ENCODING
// =============================================================================

// ToJSON converts a billing.Input to InputJSON.
func (f *InputFactory) ToJSON(in billing.Input) InputJSON {
	ij := InputJSON{FinancialYear: in.FinancialYear}

	if in.ChargeVersion != nil {
		ij.ChargeVersion = &ChargeVersionJSON{
			ID:         in.ChargeVersion.ID,
			LicenceRef: in.ChargeVersion.LicenceRef,
			PeriodJSON: periodJSON(in.ChargeVersion.Period),
		}
	}
	if !in.DocumentValidity.Start.IsZero() {
		pj := periodJSON(in.DocumentValidity)
		ij.DocumentValidity = &pj
	}

	for _, h := range in.LicenceHolders {
		ij.LicenceHolderRoles = append(ij.LicenceHolderRoles, LicenceHolderJSON{
			PeriodJSON:  periodJSON(h.Period),
			CompanyID:   h.Value.CompanyID,
			CompanyName: h.Value.CompanyName,
			ContactID:   h.Value.ContactID,
			AddressID:   h.Value.AddressID,
		})
	}
	for _, a := range in.InvoiceAccounts {
		ij.InvoiceAccountRoles = append(ij.InvoiceAccountRoles, InvoiceAccountJSON{
			PeriodJSON:           periodJSON(a.Period),
			InvoiceAccountID:     a.Value.ID,
			InvoiceAccountNumber: a.Value.Number,
			CompanyID:            a.Value.CompanyID,
			AddressID:            a.Value.AddressID,
		})
	}
	for _, a := range in.Agreements {
		ij.Agreements = append(ij.Agreements, AgreementJSON{Code: a.Code, PeriodJSON: periodJSON(a.Period)})
	}

	for _, e := range in.ChargeElements {
		enabled := !e.Section127Disabled
		ej := ChargeElementJSON{
			ID:                           e.ID,
			Description:                  e.Description,
			PurposePrimary:               e.Purpose.Primary,
			PurposeSecondary:             e.Purpose.Secondary,
			PurposeTertiary:              e.Purpose.Tertiary,
			Source:                       string(e.Source),
			Season:                       string(e.Season),
			Loss:                         string(e.Loss),
			AbstractionPeriod:            abstractionPeriodJSON(e.AbstractionPeriod),
			AuthorisedAnnualQuantity:     e.AuthorisedAnnualQuantity,
			BillableAnnualQuantity:       e.BillableAnnualQuantity,
			IsSection127AgreementEnabled: &enabled,
		}
		if e.TimeLimit != nil {
			ej.TimeLimitedStartDate = e.TimeLimit.Start.String()
			ej.TimeLimitedEndDate = e.TimeLimit.End.String()
		}
		ij.ChargeElements = append(ij.ChargeElements, ej)
	}

	for _, r := range in.Returns {
		rj := ReturnJSON{
			ID:                r.ID,
			LicenceRef:        r.LicenceRef,
			Status:            string(r.Status),
			IsUnderQuery:      r.UnderQuery,
			Purposes:          r.PurposeCodes,
			AbstractionPeriod: abstractionPeriodJSON(r.AbstractionPeriod),
			PeriodJSON:        periodJSON(r.Period),
		}
		for _, l := range r.Lines {
			rj.Lines = append(rj.Lines, ReturnLineJSON{PeriodJSON: periodJSON(l.Period), Quantity: l.Quantity})
		}
		ij.Returns = append(ij.Returns, rj)
	}

	return ij
}

func periodJSON(p generic.Period) PeriodJSON {
	return PeriodJSON{StartDate: p.Start.String(), EndDate: p.End.String()}
}

func abstractionPeriodJSON(a twopart.AbstractionPeriod) AbstractionPeriodJSON {
	return AbstractionPeriodJSON{
		StartDay:   a.StartDay,
		StartMonth: a.StartMonth,
		EndDay:     a.EndDay,
		EndMonth:   a.EndMonth,
	}
}
