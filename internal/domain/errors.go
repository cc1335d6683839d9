// Package domain defines core types, interfaces, and errors for the
// access-governance hub.
package domain

import "fmt"

// NotFoundError indicates an entity was absent where existence was required.
type NotFoundError struct {
	Message     string
	UserMessage string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message     string
	UserMessage string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates a caller or precondition violation.
type ValidationError struct {
	Message     string
	UserMessage string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflicting concurrent state, such as a
// resource that already has a pending update.
type ConflictError struct {
	Message     string
	UserMessage string
}

func (e *ConflictError) Error() string { return e.Message }

// InternalError indicates a collaborator misconfiguration or unexpected
// failure, including failed saga steps and failed compensations.
type InternalError struct {
	Message     string
	UserMessage string
	Cause       error
}

func (e *InternalError) Error() string { return e.Message }

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *InternalError) Unwrap() error { return e.Cause }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrInternal creates an InternalError with a formatted message.
func ErrInternal(format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// ErrInternalCause creates an InternalError wrapping an underlying cause.
func ErrInternalCause(cause error, format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// SafeMessage returns the user-facing message for a domain error, falling
// back to a generic phrase for internal errors and to the system message
// for caller-visible kinds. Unknown errors yield the generic phrase so
// diagnostics never leak to clients.
func SafeMessage(err error) string {
	switch e := err.(type) {
	case *NotFoundError:
		return nonEmpty(e.UserMessage, e.Message)
	case *AccessDeniedError:
		return nonEmpty(e.UserMessage, e.Message)
	case *ValidationError:
		return nonEmpty(e.UserMessage, e.Message)
	case *ConflictError:
		return nonEmpty(e.UserMessage, e.Message)
	case *InternalError:
		return nonEmpty(e.UserMessage, "internal server error")
	default:
		return "internal server error"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
