package charter

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any *NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports an aircraft already blocked for a requested window
	ErrUnavailable = errors.New("aircraft is not available")
)

// ValidationError reports a missing or malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a referenced record that does not exist
type NotFoundError struct {
	Kind string // "airport", "aircraft", "booking"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
