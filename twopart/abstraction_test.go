package twopart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func period(start, end string) generic.Period {
	return generic.Period{Start: date(start), End: date(end)}
}

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func absPeriod(startDay, startMonth, endDay, endMonth int) twopart.AbstractionPeriod {
	return twopart.AbstractionPeriod{StartDay: startDay, StartMonth: startMonth, EndDay: endDay, EndMonth: endMonth}
}

var (
	allYear = absPeriod(1, 4, 31, 3)
	summer  = absPeriod(1, 4, 31, 10)
	winter  = absPeriod(1, 11, 31, 3)
)

// =============================================================================
// ABSTRACTION PERIOD TESTS
// =============================================================================

func TestAbstractionPeriod_Contains(t *testing.T) {
	assert.True(t, summer.Contains(date("2018-04-01")))
	assert.True(t, summer.Contains(date("2018-10-31")))
	assert.False(t, summer.Contains(date("2018-11-01")))

	// wrapping window
	assert.True(t, winter.Contains(date("2018-12-25")))
	assert.True(t, winter.Contains(date("2019-03-31")))
	assert.False(t, winter.Contains(date("2019-04-01")))
	assert.True(t, winter.Wraps())
	assert.False(t, summer.Wraps())
}

func TestAbstractionPeriod_DaysIn_FinancialYear(t *testing.T) {
	tests := []struct {
		name string
		abs  twopart.AbstractionPeriod
		fy   int
		want int
	}{
		{"summer", summer, 2019, 214},
		{"all year", allYear, 2019, 365},
		{"all year, leap", allYear, 2020, 366},
		{"winter straddles the year end", winter, 2019, 151},
		{"winter, leap February", winter, 2020, 152},
		// April 2018 plus October 2018 to March 2019
		{"straddles the financial year boundary", absPeriod(1, 10, 30, 4), 2019, 212},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.abs.DaysIn(generic.FinancialYear(tt.fy)))
		})
	}
}

func TestAbstractionPeriod_Bounds(t *testing.T) {
	// GIVEN: a winter window and a range from summer into winter
	r := period("2018-09-01", "2018-12-15")

	// WHEN: bounded
	got, ok := winter.Bounds(r)

	// THEN: clipped to the first and last abstraction day
	require.True(t, ok)
	assert.Equal(t, period("2018-11-01", "2018-12-15"), got)

	_, ok = winter.Bounds(period("2018-05-01", "2018-09-30"))
	assert.False(t, ok)
}

func TestAbstractionPeriod_Within(t *testing.T) {
	assert.True(t, absPeriod(1, 5, 30, 9).Within(summer))
	assert.False(t, summer.Within(absPeriod(1, 5, 30, 9)))
	assert.True(t, absPeriod(1, 12, 31, 1).Within(winter))
	assert.False(t, absPeriod(1, 10, 31, 1).Within(winter))
	assert.True(t, winter.Within(allYear))
}

func TestAbstractionPeriod_Validate(t *testing.T) {
	assert.NoError(t, absPeriod(29, 2, 31, 3).Validate())
	assert.ErrorIs(t, absPeriod(30, 2, 31, 3).Validate(), twopart.ErrInvalidAbstractionPeriod)
	assert.ErrorIs(t, absPeriod(1, 13, 31, 3).Validate(), twopart.ErrInvalidAbstractionPeriod)
	assert.ErrorIs(t, absPeriod(1, 4, 0, 3).Validate(), twopart.ErrInvalidAbstractionPeriod)
}
