/*
Package generic provides the domain-agnostic pieces of the billing engine.

PURPOSE:
  Everything here is free of water-resources vocabulary: calendar days,
  inclusive periods, dated histories with merge/split, and exact decimal
  arithmetic. The twopart and chargeperiod packages build the billing rules
  on top of these.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantities are decimal.Decimal, never float64
  - Scale: q × num / den at a fixed working precision
  - ProRata: Scale rounded to the billing precision

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal throughout, no float drift
  2. No global state: precision is a parameter of each function,
     decimal.DivisionPrecision is never touched
  3. Immutability: every function returns a new value

USAGE:
  q := generic.MustParseDecimal("100")
  generic.ProRata(q, 184, 276) // 66.667

SEE ALSO:
  - period.go: inclusive date ranges
  - dated.go: merge/split of attribute histories
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRECISION
// =============================================================================

const (
	// WorkingPrecision is the number of significant digits kept in
	// intermediate pro-rata results.
	WorkingPrecision int32 = 8

	// BillingPlaces is the number of decimal places of a billed quantity.
	BillingPlaces int32 = 3

	// divisionPlaces bounds the raw quotient before significant rounding.
	divisionPlaces int32 = 20
)

// MustParseDecimal parses a decimal literal, panicking on bad input.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RoundSignificant rounds d to sig significant digits.
func RoundSignificant(d decimal.Decimal, sig int32) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	// digits left of the decimal point; zero or negative for |d| < 1
	intDigits := int32(d.NumDigits()) + d.Exponent()
	return d.Round(sig - intDigits)
}

// Scale returns q × num / den at WorkingPrecision significant digits.
// A zero denominator yields zero.
func Scale(q decimal.Decimal, num, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	raw := q.Mul(decimal.NewFromInt(int64(num))).DivRound(decimal.NewFromInt(int64(den)), divisionPlaces)
	return RoundSignificant(raw, WorkingPrecision)
}

// ProRata is Scale rounded to BillingPlaces.
func ProRata(q decimal.Decimal, num, den int) decimal.Decimal {
	return Scale(q, num, den).Round(BillingPlaces)
}

// MinDecimal returns the smallest of its arguments.
func MinDecimal(first decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	return decimal.Min(first, rest...)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// SumDecimals adds a list of quantities.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
