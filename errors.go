package stresslab

import (
	"errors"
	"fmt"
)

// Sentinel causes for validation failures. Callers match them with
// errors.Is to branch on the failure, the message carries the details.
var (
	// ErrNoOverlap is returned when none of the portfolio tickers has a
	// matching column in the market data.
	ErrNoOverlap = errors.New("none of the portfolio tickers exist in the market data")

	// ErrZeroWeightSum is returned when the portfolio weights sum to zero
	// and cannot be normalized.
	ErrZeroWeightSum = errors.New("weights sum to 0")

	// ErrUnknownShockType is returned for a shock type other than
	// permanent, linear_rebound or regime_shift.
	ErrUnknownShockType = errors.New("unknown shock type")

	// ErrUnknownForecastMode is returned for a forecast mode other than
	// mean, rolling or ewma.
	ErrUnknownForecastMode = errors.New("unknown forecast mode")

	// ErrNotFound is returned when an analysis id is unknown or expired.
	ErrNotFound = errors.New("analysis not found or expired")

	// ErrNoData is returned by a price provider when no data exists for
	// the requested tickers and window.
	ErrNoData = errors.New("no price data returned")
)

// ValidationError reports a problem with the caller's input. It is
// actionable and never retried.
type ValidationError struct {
	msg   string
	cause error
}

func (e *ValidationError) Error() string { return e.msg }
func (e *ValidationError) Unwrap() error { return e.cause }

// Validationf builds a ValidationError from a format string. When the last
// argument is an error it becomes the unwrappable cause.
func Validationf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &ValidationError{msg: err.Error(), cause: errors.Unwrap(err)}
}

// validation wraps a sentinel cause into a ValidationError keeping its message.
func validation(cause error) error {
	return &ValidationError{msg: cause.Error(), cause: cause}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// InternalError is an unexpected failure caught at the orchestration
// boundary. The underlying cause is logged, not surfaced.
type InternalError struct {
	cause error
}

func (e *InternalError) Error() string { return "internal error" }
func (e *InternalError) Unwrap() error { return e.cause }
