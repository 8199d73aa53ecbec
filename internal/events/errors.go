package events

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("validation failed")

// ValidationError names the field that made an event invalid.
type ValidationError struct {
	Event  EventType
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s event: invalid %s: %s", e.Event, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(event EventType, field, format string, args ...interface{}) error {
	return &ValidationError{Event: event, Field: field, Reason: fmt.Sprintf(format, args...)}
}
