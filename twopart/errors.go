package twopart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a business condition attached to an element in the billing
// result. Codes are advisory: the run still completes.
type ErrorCode string

const (
	ErrorNone                 ErrorCode = ""
	ErrorNoReturnsSubmitted   ErrorCode = "no_returns_submitted"
	ErrorSomeReturnsDue       ErrorCode = "some_returns_due"
	ErrorUnderQuery           ErrorCode = "under_query"
	ErrorReceived             ErrorCode = "received"
	ErrorNoReturnsForMatching ErrorCode = "no_returns_for_matching"
	ErrorOverAbstraction      ErrorCode = "over_abstraction"
)

var (
	// ErrNoReturnsForMatching is returned when no non-void return covers a
	// two-part tariff purpose.
	ErrNoReturnsForMatching = errors.New("no returns for matching")

	// ErrInvalidAbstractionPeriod is returned for out-of-range day/month values.
	ErrInvalidAbstractionPeriod = errors.New("invalid abstraction period")
)

// ReturnFault names one return that blocks matching.
type ReturnFault struct {
	ReturnID string
	Code     ErrorCode
}

// ReturnsNotReadyError is returned when returns exist but cannot be matched
// yet because some are outstanding, unprocessed or under query.
type ReturnsNotReadyError struct {
	// AllDue is set when no return has been submitted at all.
	AllDue bool
	Faults []ReturnFault
}

func (e *ReturnsNotReadyError) Error() string {
	if e.AllDue {
		return "returns not ready: no returns submitted"
	}
	parts := make([]string, len(e.Faults))
	for i, f := range e.Faults {
		parts[i] = fmt.Sprintf("%s (%s)", f.ReturnID, f.Code)
	}
	return "returns not ready: " + strings.Join(parts, ", ")
}

// Code is the element error code for the whole return set. Outstanding
// returns take precedence over queries, queries over unprocessed returns.
func (e *ReturnsNotReadyError) Code() ErrorCode {
	if e.AllDue {
		return ErrorNoReturnsSubmitted
	}
	for _, want := range []ErrorCode{ErrorSomeReturnsDue, ErrorUnderQuery, ErrorReceived} {
		for _, f := range e.Faults {
			if f.Code == want {
				return want
			}
		}
	}
	return ErrorSomeReturnsDue
}

// ErrorCodeOf maps a return-preparation error to its element error code.
// Unknown errors map to ErrorNone.
func ErrorCodeOf(err error) ErrorCode {
	var notReady *ReturnsNotReadyError
	switch {
	case err == nil:
		return ErrorNone
	case errors.As(err, &notReady):
		return notReady.Code()
	case errors.Is(err, ErrNoReturnsForMatching):
		return ErrorNoReturnsForMatching
	default:
		return ErrorNone
	}
}
