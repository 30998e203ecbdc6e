package billing

import (
	"errors"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

var (
	// ErrChargeVersionNotFound is returned when no charge version is staged
	// for the requested id and financial year.
	ErrChargeVersionNotFound = errors.New("charge version not found")

	// ErrRunNotFound is returned when a stored run does not exist.
	ErrRunNotFound = errors.New("billing run not found")

	// ErrInvalidInput is returned when staged input fails validation.
	ErrInvalidInput = errors.New("invalid billing input")
)

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, twopart.ErrInvalidAbstractionPeriod) ||
		generic.IsClientError(err)
}

// IsNotFound returns true if the error names a missing charge version or run.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChargeVersionNotFound) || errors.Is(err, ErrRunNotFound)
}
