/*
errors.go - Sentinel errors for the generic engine

PURPOSE:
  Malformed dates and periods are rejected where they enter the system
  (factory, NewPeriod). Domain packages wrap these with context.

USAGE:
  if errors.Is(err, generic.ErrInvalidPeriod) {
      // 400 at the API boundary
  }

SEE ALSO:
  - period.go: Validate
  - factory/input.go: wraps these with the offending field
*/
package generic

import "errors"

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrMissingStartDate is returned when a period has no start date.
	ErrMissingStartDate = errors.New("invalid period: missing start date")

	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMissingStartDate) ||
		errors.Is(err, ErrInvalidDate)
}
