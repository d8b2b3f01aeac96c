package journal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound unifies "record does not exist" and "record belongs to a
	// different user" so that callers cannot probe other accounts.
	ErrNotFound = errors.New("journal: record not found")
	// ErrStorageFailure wraps attachment I/O errors that must reach the
	// caller as server errors instead of being swallowed.
	ErrStorageFailure = errors.New("journal: attachment storage failure")
)

// ValidationError reports malformed or missing input with field-level detail.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError with an explicit message.
func NewValidationError(message string, fields ...string) error {
	return &ValidationError{Fields: fields, Message: message}
}

func missingFieldsError(fields []string) error {
	return &ValidationError{Fields: fields}
}
