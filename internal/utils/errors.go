package utils

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is checks against the typed errors below.
var (
	ErrValidation       = errors.New("validation error")
	ErrEmptyRange       = errors.New("empty range")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFound         = errors.New("not found")
)

// Error kind names used in structured error payloads.
const (
	KindValidation       = "validation"
	KindEmptyRange       = "empty_range"
	KindInsufficientData = "insufficient_data"
	KindNotFound         = "not_found"
	KindInternal         = "internal"
)

// ValidationError represents malformed, non-monotonic or duplicate input data.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
//
// Parameters:
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// EmptyRangeError is returned when a date-range query matches no observations.
type EmptyRangeError struct {
	Message string
}

func (e *EmptyRangeError) Error() string {
	return e.Message
}

// Is reports whether target is ErrEmptyRange.
func (e *EmptyRangeError) Is(target error) bool {
	return target == ErrEmptyRange
}

// NewEmptyRangeErrorf creates a new EmptyRangeError with a formatted message.
func NewEmptyRangeErrorf(format string, args ...interface{}) error {
	return &EmptyRangeError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InsufficientDataError is returned when a statistic lacks enough observations.
// Required and Actual describe the shortfall.
type InsufficientDataError struct {
	Message  string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d, got %d", e.Message, e.Required, e.Actual)
}

// Is reports whether target is ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(message string, required, actual int) error {
	return &InsufficientDataError{
		Message:  message,
		Required: required,
		Actual:   actual,
	}
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Resource, e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError for the given resource and key.
func NewNotFoundError(resource, key string) error {
	return &NotFoundError{
		Resource: resource,
		Key:      key,
	}
}

// ErrorKind returns the kind name of err, or KindInternal for unknown errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrEmptyRange):
		return KindEmptyRange
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
