package montecarlo

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidModel is matched by every *InvalidModelError.
	ErrInvalidModel = errors.New("invalid model")
	// ErrRequestTooLarge is returned when a request's cost estimate exceeds the configured bound.
	ErrRequestTooLarge = errors.New("request too large")
)

// ValidationError reports a missing or inconsistent request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidModelError reports an unrecognized simulation_model or time_series_model.
type InvalidModelError struct {
	Field string
	Value string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidModelError) Is(target error) bool { return target == ErrInvalidModel }

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
