package ml

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidCode     = errors.New("invalid code")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStartup         = errors.New("startup failure")
	ErrNotTrained      = errors.New("model not trained")
)

// Error kinds reported to clients and metrics.
const (
	KindUnknownCategory = "unknown_category"
	KindInvalidInput    = "invalid_input"
	KindInternal        = "internal"
)

// UnknownCategoryError reports a categorical value outside the trained vocabulary.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unknown category %q", e.Value)
	}
	return fmt.Sprintf("unknown category %q for field %s", e.Value, e.Field)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// InvalidCodeError reports a code outside [0, Size-1].
type InvalidCodeError struct {
	Code int
	Size int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code %d: expected 0..%d", e.Code, e.Size-1)
}

func (e *InvalidCodeError) Unwrap() error { return ErrInvalidCode }

// InputError reports a missing, malformed or mistyped field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// ErrorKind classifies a prediction error.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCategory):
		return KindUnknownCategory
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

func startupError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStartup, fmt.Sprintf(format, args...))
}
