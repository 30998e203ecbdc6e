package twopart

import (
	"fmt"
	"time"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

// =============================================================================
// ABSTRACTION PERIOD - Recurring day/month window
// =============================================================================

// AbstractionPeriod is the part of every year in which abstraction is
// permitted, e.g. 1 April to 31 October. The window may wrap the year end
// (1 November to 31 March) and so may straddle the financial-year boundary.
//
// All date arithmetic is done by day membership rather than by building a
// dated instance of the window, so a window that straddles 31 December or
// 31 March needs no year-shift correction.
type AbstractionPeriod struct {
	StartDay   int
	StartMonth int
	EndDay     int
	EndMonth   int
}

// Validate checks day/month ranges. 29 February is accepted.
func (a AbstractionPeriod) Validate() error {
	if err := validateDayMonth(a.StartDay, a.StartMonth); err != nil {
		return fmt.Errorf("abstraction period start: %w", err)
	}
	if err := validateDayMonth(a.EndDay, a.EndMonth); err != nil {
		return fmt.Errorf("abstraction period end: %w", err)
	}
	return nil
}

func validateDayMonth(day, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidAbstractionPeriod, month)
	}
	// 2020 is a leap year, so February allows 29
	last := time.Date(2020, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day < 1 || day > last {
		return fmt.Errorf("%w: day %d of month %d", ErrInvalidAbstractionPeriod, day, month)
	}
	return nil
}

func dayKey(month, day int) int { return month*100 + day }

// Wraps reports whether the window crosses 31 December.
func (a AbstractionPeriod) Wraps() bool {
	return dayKey(a.EndMonth, a.EndDay) < dayKey(a.StartMonth, a.StartDay)
}

// Contains reports whether the calendar day falls inside the window.
func (a AbstractionPeriod) Contains(tp generic.TimePoint) bool {
	x := dayKey(int(tp.Month()), tp.Day())
	start := dayKey(a.StartMonth, a.StartDay)
	end := dayKey(a.EndMonth, a.EndDay)
	if a.Wraps() {
		return x >= start || x <= end
	}
	return start <= x && x <= end
}

// DaysIn counts the abstraction days inside p. Open periods count zero.
func (a AbstractionPeriod) DaysIn(p generic.Period) int {
	count := 0
	for _, day := range p.Days() {
		if a.Contains(day) {
			count++
		}
	}
	return count
}

// Bounds returns the first and last abstraction day inside p.
// ok is false when p contains no abstraction day.
func (a AbstractionPeriod) Bounds(p generic.Period) (generic.Period, bool) {
	var first, last generic.TimePoint
	for _, day := range p.Days() {
		if !a.Contains(day) {
			continue
		}
		if first.IsZero() {
			first = day
		}
		last = day
	}
	if first.IsZero() {
		return generic.Period{}, false
	}
	return generic.Period{Start: first, End: last}, true
}

// Within reports whether every day of a also lies in outer.
func (a AbstractionPeriod) Within(outer AbstractionPeriod) bool {
	// a leap year visits every day/month pair once
	for _, day := range generic.FinancialYear(2020).Days() {
		if a.Contains(day) && !outer.Contains(day) {
			return false
		}
	}
	return true
}

func (a AbstractionPeriod) String() string {
	return fmt.Sprintf("%02d/%02d-%02d/%02d", a.StartDay, a.StartMonth, a.EndDay, a.EndMonth)
}
