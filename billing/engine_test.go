package billing_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func period(start, end string) generic.Period {
	return generic.Period{Start: date(start), End: date(end)}
}

func openFrom(start string) generic.Period { return generic.Period{Start: date(start)} }

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

var summer = twopart.AbstractionPeriod{StartDay: 1, StartMonth: 4, EndDay: 31, EndMonth: 10}

func sprayElement(id, authorised string) twopart.ChargeElement {
	return twopart.ChargeElement{
		ID:                       id,
		Description:              "Spray irrigation",
		Purpose:                  twopart.Purpose{Primary: "A", Secondary: "AGR", Tertiary: "400"},
		Source:                   twopart.SourceUnsupported,
		Season:                   twopart.SeasonSummer,
		Loss:                     twopart.LossHigh,
		AbstractionPeriod:        summer,
		AuthorisedAnnualQuantity: dec(authorised),
	}
}

// monthlyReturn has one line per month from April to October of 2018 with
// the given cubic metres each.
func monthlyReturn(id string, status twopart.ReturnStatus, cubicMetres string) twopart.Return {
	r := twopart.Return{
		ID:                id,
		Period:            generic.FinancialYear(2019),
		Status:            status,
		PurposeCodes:      []string{"400"},
		AbstractionPeriod: summer,
	}
	for month := 4; month <= 10; month++ {
		start := generic.MustParseDate(fmt.Sprintf("2018-%02d-01", month))
		end := start.AddDays(31)
		end = generic.NewTimePoint(end.Year(), end.Month(), 1).AddDays(-1)
		r.Lines = append(r.Lines, twopart.ReturnLine{
			Period:   generic.Period{Start: start, End: end},
			Quantity: decimal.NewNullDecimal(dec(cubicMetres)),
		})
	}
	return r
}

func licenceInput(elements []twopart.ChargeElement, returns ...twopart.Return) billing.Input {
	return billing.Input{
		ChargeVersion: &chargeperiod.ChargeVersion{ID: "cv-1", LicenceRef: "01/123", Period: openFrom("2018-04-01")},
		FinancialYear: 2019,
		LicenceHolders: []generic.Dated[chargeperiod.LicenceHolder]{
			{Period: openFrom("2000-01-01"), Value: chargeperiod.LicenceHolder{CompanyID: "acme"}},
		},
		InvoiceAccounts: []generic.Dated[chargeperiod.InvoiceAccount]{
			{Period: openFrom("2000-01-01"), Value: chargeperiod.InvoiceAccount{ID: "ia-1", Number: "A00000001A"}},
		},
		Agreements: []chargeperiod.Agreement{
			{Code: billing.Section127, Period: openFrom("2015-04-01")},
		},
		ChargeElements: elements,
		Returns:        returns,
	}
}

func newEngine() *billing.Engine {
	return billing.NewEngine(billing.DefaultOptions(), nil)
}

func onlyElement(t *testing.T, result *billing.Result) billing.ElementResult {
	t.Helper()
	require.Len(t, result.SubPeriods, 1)
	require.Len(t, result.SubPeriods[0].Elements, 1)
	return result.SubPeriods[0].Elements[0]
}

// =============================================================================
// ENGINE TESTS
// =============================================================================

func TestEngine_WithinAllowance(t *testing.T) {
	// GIVEN: a 100 Ml summer element and 7 × 5000 m³ readings
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "100")},
		monthlyReturn("r1", twopart.StatusCompleted, "5000"),
	)

	// WHEN: computed
	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	// THEN: 35 Ml billed, no error
	er := onlyElement(t, result)
	require.True(t, er.ActualReturnQuantity.Valid)
	assert.True(t, dec("35").Equal(er.ActualReturnQuantity.Decimal))
	assert.Equal(t, twopart.ErrorNone, er.Error)
	assert.Equal(t, 214, er.Element.BillableDays)
	assert.True(t, result.SubPeriods[0].TwoPartTariff)
	assert.True(t, result.SubPeriods[0].HasAgreement(billing.Section127))
	assert.Equal(t, twopart.ErrorNone, result.ReturnsError)
}

func TestEngine_OverAbstraction(t *testing.T) {
	// GIVEN: 7 × 10000 m³ against a 50 Ml element
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "50")},
		monthlyReturn("r1", twopart.StatusCompleted, "10000"),
	)

	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	// THEN: all 70 Ml billed and flagged
	er := onlyElement(t, result)
	assert.True(t, dec("70").Equal(er.ActualReturnQuantity.Decimal))
	assert.Equal(t, twopart.ErrorOverAbstraction, er.Error)
	assert.Equal(t, map[twopart.ErrorCode]int{twopart.ErrorOverAbstraction: 1}, result.ElementErrors())
}

func TestEngine_ReturnsNotReady(t *testing.T) {
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "50"), sprayElement("e2", "20")},
		monthlyReturn("r1", twopart.StatusCompleted, "1000"),
		monthlyReturn("r2", twopart.StatusDue, "0"),
	)

	result, err := newEngine().Compute(in)
	require.NoError(t, err, "unready returns do not fail the run")

	assert.Equal(t, twopart.ErrorSomeReturnsDue, result.ReturnsError)
	require.Len(t, result.SubPeriods, 1)
	require.Len(t, result.SubPeriods[0].Elements, 2)
	for _, er := range result.SubPeriods[0].Elements {
		assert.False(t, er.ActualReturnQuantity.Valid)
		assert.Equal(t, twopart.ErrorSomeReturnsDue, er.Error)
		assert.True(t, er.Element.MaxAllowableQuantity().IsPositive(), "elements are still prepared")
	}
}

func TestEngine_NoReturns(t *testing.T) {
	in := licenceInput([]twopart.ChargeElement{sprayElement("e1", "50")})

	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	assert.Equal(t, twopart.ErrorNoReturnsForMatching, onlyElement(t, result).Error)
}

func TestEngine_NoSection127Agreement(t *testing.T) {
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "50")},
		monthlyReturn("r1", twopart.StatusCompleted, "1000"),
	)
	in.Agreements = nil

	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	require.Len(t, result.SubPeriods, 1)
	assert.False(t, result.SubPeriods[0].TwoPartTariff)
	assert.Empty(t, result.SubPeriods[0].Elements)
}

func TestEngine_ReadingsSharedAcrossSubPeriods(t *testing.T) {
	// GIVEN: an invoice account change on 1 July and a 214 Ml element
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "214")},
		monthlyReturn("r1", twopart.StatusCompleted, "10000"),
	)
	in.InvoiceAccounts = []generic.Dated[chargeperiod.InvoiceAccount]{
		{Period: period("2000-01-01", "2018-06-30"), Value: chargeperiod.InvoiceAccount{ID: "ia-1"}},
		{Period: openFrom("2018-07-01"), Value: chargeperiod.InvoiceAccount{ID: "ia-2"}},
	}

	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	// THEN: April to June readings bill to the first account, the rest to
	// the second, each pro-rated by its own days
	require.Len(t, result.SubPeriods, 2)
	first := result.SubPeriods[0].Elements[0]
	second := result.SubPeriods[1].Elements[0]

	assert.Equal(t, 91, first.Element.BillableDays)
	assert.True(t, dec("91").Equal(first.Element.ProRataAuthorisedQuantity))
	assert.True(t, dec("30").Equal(first.ActualReturnQuantity.Decimal))

	assert.Equal(t, 123, second.Element.BillableDays)
	assert.True(t, dec("40").Equal(second.ActualReturnQuantity.Decimal))
	assert.Equal(t, "ia-2", result.SubPeriods[1].InvoiceAccount.ID)
}

func TestEngine_RoundsBilledQuantity(t *testing.T) {
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "100")},
		twopart.Return{
			ID:                "r1",
			Status:            twopart.StatusCompleted,
			PurposeCodes:      []string{"400"},
			AbstractionPeriod: summer,
			Lines: []twopart.ReturnLine{{
				Period:   period("2018-05-01", "2018-05-31"),
				Quantity: decimal.NewNullDecimal(dec("1234.5678")),
			}},
		},
	)

	result, err := newEngine().Compute(in)
	require.NoError(t, err)

	er := onlyElement(t, result)
	assert.Equal(t, "1.235", er.ActualReturnQuantity.Decimal.String())
	assert.Equal(t, "1.2345678", er.Element.ActualReturnQuantity.String(), "unrounded quantity is kept on the element")
}

func TestEngine_ChargeVersionNotFound(t *testing.T) {
	in := licenceInput(nil)
	in.ChargeVersion = nil

	_, err := newEngine().Compute(in)

	assert.ErrorIs(t, err, billing.ErrChargeVersionNotFound)
	assert.True(t, billing.IsNotFound(err))
}

func TestEngine_InvalidInput(t *testing.T) {
	el := sprayElement("e1", "10")
	el.AbstractionPeriod.EndDay = 32

	_, err := newEngine().Compute(licenceInput([]twopart.ChargeElement{el}))

	assert.ErrorIs(t, err, billing.ErrInvalidInput)
	assert.ErrorIs(t, err, twopart.ErrInvalidAbstractionPeriod)
	assert.True(t, billing.IsClientError(err))
}

func TestEngine_SectionCheckDisabled(t *testing.T) {
	opts := billing.DefaultOptions()
	opts.Section127Code = ""
	in := licenceInput(
		[]twopart.ChargeElement{sprayElement("e1", "50")},
		monthlyReturn("r1", twopart.StatusCompleted, "1000"),
	)
	in.Agreements = nil

	result, err := billing.NewEngine(opts, nil).Compute(in)
	require.NoError(t, err)

	assert.True(t, dec("7").Equal(onlyElement(t, result).ActualReturnQuantity.Decimal))
}
