package helpers

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ScreenerError struct {
	Message string
	Cause   error
}

func (e *ScreenerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScreenerError) Unwrap() error {
	return e.Cause
}

// CalendarConfigError means the holiday table is malformed or
// insufficient. This is fatal: the run cannot reason about trading
// days at all, so it aborts instead of producing partial results.
type CalendarConfigError struct{ ScreenerError }

// MissingDataError means a required input value was absent for one
// ticker/date. Non-fatal: that single result is excluded and the
// batch continues.
type MissingDataError struct{ ScreenerError }

// InsufficientDataError means the two trend series had nothing in
// common to compare. Non-fatal, per-ticker exclusion.
type InsufficientDataError struct{ ScreenerError }

// InvalidPriceError means a percentage computation hit a zero base
// price. Non-fatal, per-ticker exclusion.
type InvalidPriceError struct{ ScreenerError }

// Collaborator-layer errors.
type ConfigurationError struct{ ScreenerError }
type NetworkError struct{ ScreenerError }
type DatabaseError struct{ ScreenerError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewCalendarConfigError(format string, args ...interface{}) error {
	return &CalendarConfigError{ScreenerError{Message: fmt.Sprintf(format, args...)}}
}

func NewMissingDataError(format string, args ...interface{}) error {
	return &MissingDataError{ScreenerError{Message: fmt.Sprintf(format, args...)}}
}

func NewInsufficientDataError(format string, args ...interface{}) error {
	return &InsufficientDataError{ScreenerError{Message: fmt.Sprintf(format, args...)}}
}

func NewInvalidPriceError(format string, args ...interface{}) error {
	return &InvalidPriceError{ScreenerError{Message: fmt.Sprintf(format, args...)}}
}

func WrapNetworkError(msg string, cause error) error {
	return &NetworkError{ScreenerError{Message: msg, Cause: cause}}
}

func WrapDatabaseError(msg string, cause error) error {
	return &DatabaseError{ScreenerError{Message: msg, Cause: cause}}
}

func WrapConfigurationError(msg string, cause error) error {
	return &ConfigurationError{ScreenerError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsFatal reports whether an error should abort the whole run rather
// than exclude a single ticker/date result.
func IsFatal(err error) bool {
	var calErr *CalendarConfigError
	var cfgErr *ConfigurationError
	return errors.As(err, &calErr) || errors.As(err, &cfgErr)
}

// IsExclusion reports whether an error is a per-ticker exclusion: the
// result is dropped from ranking and the batch continues.
func IsExclusion(err error) bool {
	var missing *MissingDataError
	var insufficient *InsufficientDataError
	var price *InvalidPriceError
	return errors.As(err, &missing) || errors.As(err, &insufficient) || errors.As(err, &price)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		time.Sleep(delay)
	}

	return nil, &NetworkError{ScreenerError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}}
}
