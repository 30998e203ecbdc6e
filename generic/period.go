package generic

// =============================================================================
// PERIOD - An inclusive date range, optionally open-ended
// =============================================================================

// Period is the inclusive range [Start, End]. A zero End means the period has
// no end date (e.g. a licence role that is still current).
//
// Examples:
//   - Financial year 2019: 2018-04-01 - 2019-03-31
//   - Licence holder since 2010: 2010-06-01 - (open)
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period, rejecting an end before the start.
func NewPeriod(start, end TimePoint) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// IsOpen reports whether the period has no end date.
func (p Period) IsOpen() bool { return p.End.IsZero() }

// Validate checks the Start <= End invariant.
func (p Period) Validate() error {
	if p.Start.IsZero() {
		return ErrMissingStartDate
	}
	if !p.IsOpen() && p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	if t.Before(p.Start) {
		return false
	}
	return p.IsOpen() || t.BeforeOrEqual(p.End)
}

// ContainsPeriod reports whether other lies entirely inside p.
func (p Period) ContainsPeriod(other Period) bool {
	if !p.Contains(other.Start) {
		return false
	}
	if other.IsOpen() {
		return p.IsOpen()
	}
	return p.Contains(other.End)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	_, ok := p.Intersect(other)
	return ok
}

// Intersect returns the days common to both periods. ok is false when they
// are disjoint.
func (p Period) Intersect(other Period) (Period, bool) {
	result := Period{Start: MaxTime(p.Start, other.Start)}
	switch {
	case p.IsOpen():
		result.End = other.End
	case other.IsOpen():
		result.End = p.End
	default:
		result.End = MinTime(p.End, other.End)
	}
	if !result.IsOpen() && result.End.Before(result.Start) {
		return Period{}, false
	}
	return result, true
}

// Length returns the inclusive day count. Open periods have no length and
// return 0.
func (p Period) Length() int {
	if p.IsOpen() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period as a slice of TimePoints.
// Open periods yield nil.
func (p Period) Days() []TimePoint {
	if p.IsOpen() {
		return nil
	}
	days := make([]TimePoint, 0, p.Length())
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Follows reports whether p starts the day after prev ends, or prev is open.
func (p Period) Follows(prev Period) bool {
	if prev.IsOpen() {
		return true
	}
	return p.Start.Equal(prev.End.AddDays(1))
}

// String returns a string representation of the period.
func (p Period) String() string {
	end := p.End.String()
	if p.IsOpen() {
		end = "open"
	}
	return "[" + p.Start.String() + ", " + end + "]"
}

// IntersectAll folds Intersect over several periods.
func IntersectAll(first Period, rest ...Period) (Period, bool) {
	result := first
	for _, p := range rest {
		var ok bool
		if result, ok = result.Intersect(p); !ok {
			return Period{}, false
		}
	}
	return result, true
}
