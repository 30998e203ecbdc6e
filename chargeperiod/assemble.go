package chargeperiod

import (
	"sort"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// ASSEMBLY
// =============================================================================

// Assemble derives the sub-periods of a charge version year.
//
// The base range is the charge version clipped to the financial year and the
// document validity. It is split first by invoice account and then by
// licence holder, each history merged beforehand so unchanged values do not
// create extra boundaries. Finally each agreement code splits it into
// present/absent stretches.
//
// Gaps in a role history are covered with a zero-valued role so no part of
// the base range is dropped; see MissingLicenceHolder and
// MissingInvoiceAccount. The result is chronological, disjoint and covers
// the base range exactly. A charge version outside the year yields nil.
func Assemble(in Input) []SubPeriod {
	base, ok := generic.IntersectAll(
		in.ChargeVersion.Period,
		generic.FinancialYear(in.FinancialYear),
		in.DocumentValidity,
	)
	if !ok {
		return nil
	}

	seed := SubPeriod{
		ChargeVersionID: in.ChargeVersion.ID,
		LicenceRef:      in.ChargeVersion.LicenceRef,
		FinancialYear:   in.FinancialYear,
		Original:        in.ChargeVersion.Period,
	}
	segments := []generic.Segment[SubPeriod]{{
		Original:  in.ChargeVersion.Period,
		Effective: base,
		Value:     seed,
	}}

	accounts := normaliseRole(in.InvoiceAccounts, base, InvoiceAccount{})
	segments = generic.SplitAll(segments, accounts, func(s SubPeriod, a InvoiceAccount) SubPeriod {
		s.InvoiceAccount = a
		return s
	})

	holders := normaliseRole(in.LicenceHolders, base, LicenceHolder{})
	segments = generic.SplitAll(segments, holders, func(s SubPeriod, h LicenceHolder) SubPeriod {
		s.LicenceHolder = h
		return s
	})

	for _, code := range agreementCodes(in) {
		history := generic.Cover(agreementHistory(in.Agreements, code), base, false)
		segments = generic.SplitAll(segments, history, func(s SubPeriod, present bool) SubPeriod {
			return s.withAgreement(code, present)
		})
	}

	subs := make([]SubPeriod, len(segments))
	for i, seg := range segments {
		sp := seg.Value
		sp.Period = seg.Effective
		subs[i] = sp
	}
	return subs
}

// normaliseRole sorts and merges a role history and fills its gaps inside
// within with the zero role.
func normaliseRole[T any](history []generic.Dated[T], within generic.Period, missing T) []generic.Dated[T] {
	merged := generic.Merge(generic.SortByStart(history), nil)
	return generic.Cover(merged, within, missing)
}

// agreementCodes lists the configured codes followed by any other code
// present in the input, without duplicates.
func agreementCodes(in Input) []string {
	seen := map[string]bool{}
	var codes []string
	for _, c := range in.AgreementCodes {
		if !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	var extra []string
	for _, a := range in.Agreements {
		if !seen[a.Code] {
			seen[a.Code] = true
			extra = append(extra, a.Code)
		}
	}
	sort.Strings(extra)
	return append(codes, extra...)
}

// agreementHistory returns the code's agreement ranges sorted, with
// overlapping and contiguous ranges combined.
func agreementHistory(agreements []Agreement, code string) []generic.Dated[bool] {
	var history []generic.Dated[bool]
	for _, a := range agreements {
		if a.Code == code {
			history = append(history, generic.Dated[bool]{Period: a.Period, Value: true})
		}
	}
	history = generic.SortByStart(history)

	combined := make([]generic.Dated[bool], 0, len(history))
	for _, h := range history {
		if n := len(combined); n > 0 {
			last := &combined[n-1]
			if last.IsOpen() {
				continue
			}
			if h.Start.BeforeOrEqual(last.End.AddDays(1)) {
				if h.IsOpen() || h.End.After(last.End) {
					last.End = h.End
				}
				continue
			}
		}
		combined = append(combined, h)
	}
	return combined
}
