// Package errors defines the sentinel and structured errors shared by the
// bot, its loaders and its surfaces.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check them with errors.Is.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the user sent something unusable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyMessage indicates a blank chat message.
	ErrEmptyMessage = errors.New("empty message")

	// ErrTimeout indicates an operation ran out of time.
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimitExceeded indicates a caller exhausted its quota.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError reports a field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TableError reports a reference table that could not be read.
// Line is 0 when the failure is not tied to a row.
type TableError struct {
	File string
	Line int
	Err  error
}

func (e *TableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("table %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("table %s: %v", e.File, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// NewTableError creates a new table error.
func NewTableError(file string, line int, err error) *TableError {
	return &TableError{File: file, Line: line, Err: err}
}
