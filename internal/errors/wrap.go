package errors

import (
	"errors"
	"fmt"
)

// DefaultUserMessage is shown when an error carries no user text.
const DefaultUserMessage = "Error interno del servidor"

// ErrorWrapper tags errors with the module and operation that produced them.
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper creates a wrapper for one module/operation pair.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap attaches the context and a user-facing message. Returns nil if err
// is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Operation:   w.operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf is Wrap with a formatted user message.
func (w *ErrorWrapper) Wrapf(err error, userMessageFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(userMessageFormat, args...))
}

// WrappedError keeps the internal cause apart from the Spanish text a user
// may see.
type WrappedError struct {
	Module      string // e.g. "bot", "learned"
	Operation   string // e.g. "save_answer"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user text of the outermost WrappedError in
// err's chain, or DefaultUserMessage. Raw error text is never returned.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	return DefaultUserMessage
}
