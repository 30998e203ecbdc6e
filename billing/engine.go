/*
engine.go - Two-part tariff computation for one charge version year

PURPOSE:
  Runs the pipeline over an already-loaded Input:

    1. chargeperiod.Assemble      sub-periods of constant attributes
    2. twopart.PrepareReturns     once for the whole year
    3. per sub-period, in date order:
         twopart.PrepareElements  day counts and pro-rata quantities
         twopart.Match            return lines → elements
         twopart.Reshuffle        priority redistribution per purpose

  Return lines are shared across sub-periods: a reading matched in an
  earlier sub-period is not available to a later one.

  Returns that are not ready (due, received, under query) or missing do not
  fail the run. Every element is reported with the matching error code and
  a null quantity instead.

FAILURE:
  A missing charge version is the only fatal condition. It is logged with
  the financial year and returned as ErrChargeVersionNotFound.

SEE ALSO:
  - service.go: load → compute → save
  - twopart/: the matching rules
*/
package billing

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Engine computes two-part tariff results. It holds no per-run state and is
// safe for concurrent use.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an engine. A nil logger uses slog.Default().
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options { return e.opts }

// Compute runs the pipeline for one charge version year.
func (e *Engine) Compute(in Input) (*Result, error) {
	if in.ChargeVersion == nil {
		e.logger.Error("charge version not found", "financial_year", in.FinancialYear)
		return nil, fmt.Errorf("financial year %d: %w", in.FinancialYear, ErrChargeVersionNotFound)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cv := *in.ChargeVersion
	logger := e.logger.With("charge_version_id", cv.ID, "financial_year", in.FinancialYear)

	subs := chargeperiod.Assemble(chargeperiod.Input{
		ChargeVersion:    cv,
		FinancialYear:    in.FinancialYear,
		DocumentValidity: in.DocumentValidity,
		LicenceHolders:   in.LicenceHolders,
		InvoiceAccounts:  in.InvoiceAccounts,
		Agreements:       in.Agreements,
		AgreementCodes:   e.opts.AgreementCodes,
	})

	returns, returnsErr := twopart.PrepareReturns(in.Returns, e.opts.TwoPartTariff)
	if returnsErr != nil {
		logger.Info("returns not ready for matching", "error", returnsErr)
	}

	result := &Result{
		ChargeVersionID: cv.ID,
		LicenceRef:      cv.LicenceRef,
		FinancialYear:   in.FinancialYear,
		ReturnsError:    twopart.ErrorCodeOf(returnsErr),
		SubPeriods:      make([]SubPeriodResult, 0, len(subs)),
	}

	fy := generic.FinancialYear(in.FinancialYear)
	for _, sp := range subs {
		if sp.MissingLicenceHolder() {
			logger.Warn("sub-period has no licence holder", "period", sp.Period.String())
		}
		if sp.MissingInvoiceAccount() {
			logger.Warn("sub-period has no invoice account", "period", sp.Period.String())
		}

		spr := SubPeriodResult{SubPeriod: sp, TwoPartTariff: e.isTwoPartTariff(sp)}
		if spr.TwoPartTariff {
			elements := twopart.PrepareElements(sp.Period, fy, in.ChargeElements, e.opts.TwoPartTariff)
			if returnsErr != nil {
				spr.Elements = unmatched(elements, result.ReturnsError)
			} else {
				var matched []twopart.PreparedElement
				matched, returns = twopart.Match(elements, returns)
				spr.Elements = reshuffled(matched)
			}
		}
		result.SubPeriods = append(result.SubPeriods, spr)
	}

	logger.Debug("two-part tariff computed",
		"sub_periods", len(result.SubPeriods),
		"elements", result.ElementCount(),
	)
	return result, nil
}

func (e *Engine) isTwoPartTariff(sp chargeperiod.SubPeriod) bool {
	return e.opts.Section127Code == "" || sp.HasAgreement(e.opts.Section127Code)
}

func unmatched(elements []twopart.PreparedElement, code twopart.ErrorCode) []ElementResult {
	out := make([]ElementResult, len(elements))
	for i, el := range elements {
		out[i] = ElementResult{Element: el, Error: code}
	}
	return out
}

func reshuffled(matched []twopart.PreparedElement) []ElementResult {
	allocations := twopart.Reshuffle(matched)
	out := make([]ElementResult, len(matched))
	for i, el := range matched {
		a := allocations[i]
		el.ActualReturnQuantity = a.ActualReturnQuantity
		out[i] = ElementResult{
			Element:              el,
			ActualReturnQuantity: decimal.NewNullDecimal(a.ActualReturnQuantity.Round(generic.BillingPlaces)),
			Error:                a.Error,
		}
	}
	return out
}
