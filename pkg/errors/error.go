// Package errors provides coded errors for the forecast toolkit.
//
// Error codes are grouped by concern:
//   - Validation errors (100-199): bad windows, bad price bars, unordered series
//   - Data errors (200-299): empty provider results, unreadable sources
//   - Indicator errors (300-399): registry lookups and undefined warm-up values
//   - Strategy errors (400-499): unsupported strategy selections
//   - Forecast errors (500-599): model fitting and error-metric failures
//   - Backtest errors (600-699): runner configuration and cancellation
//   - Market data errors (700-799): provider fetch, parse and timeout failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidParameter, "window %d exceeds series length %d", w, n)
//
//	if errors.HasCode(err, errors.ErrCodeModelFit) {
//		// fall back to a degenerate forecast
//	}
package errors

import (
	"errors"
	"fmt"
)

// Error is a failure tagged with an ErrorCode. The pipeline boundary classifies failures by
// code (NoDataAvailable becomes a warning, ModelFit triggers the last-value fallback) rather
// than by message text.
type Error struct {
	Code    ErrorCode
	Message string
	// Cause is the lower-level failure, e.g. a provider or model error; nil for root errors.
	Cause error
}

// New returns a root error with code.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: nil}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap tags cause with code. The outer code is what HasCode sees; HasCodeInChain also
// matches the codes of wrapped causes.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// Error renders "[code] message" followed by ": cause" when wrapped.
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join combines errs into one error, dropping nils. It returns nil when every error is nil.
// The registry uses it to report one failure per indicator; Split gets the parts back.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Split returns the errors combined by Join, or err itself when it is not a joined error.
func Split(err error) []error {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}

	return []error{err}
}

// GetCode returns the code of the outermost *Error in err's chain, or ErrCodeUnknown for
// errors that never passed through this package (e.g. a raw net/http failure).
func GetCode(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether the outermost code of err is code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// HasCodeInChain reports whether any *Error in err's chain carries code.
func HasCodeInChain(err error, code ErrorCode) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			return false
		}

		if coded.Code == code {
			return true
		}

		err = coded.Cause
	}

	return false
}

// InsufficientDataError carries how many observations a model or indicator needed and how
// many it got. It is usually the Cause of a ModelFit error.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError builds an InsufficientDataError; symbol may be empty.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf is NewInsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError reports whether err's chain holds an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
