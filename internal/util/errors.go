// Package util provides utility functions and types for the
// configuration client.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrInvalidReference.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., ReferenceError, NamespaceError). Each
//     type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidReference = errors.New("invalid configuration reference")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ReferenceError reports a placeholder reference that could not be
// resolved against the available property sources. It is fatal to the
// enclosing initialization phase.
type ReferenceError struct {
	Expression string
	Key        string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid configuration reference %q: key %q could not be resolved",
		e.Expression, e.Key)
}

// Is checks if the error matches the target.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrInvalidReference {
		return true
	}
	_, ok := target.(*ReferenceError)
	return ok
}

// NewReferenceError creates a new ReferenceError.
func NewReferenceError(expression, key string) *ReferenceError {
	return &ReferenceError{Expression: expression, Key: key}
}

// NamespaceError represents a failure to fetch or process one remote
// namespace.
type NamespaceError struct {
	Namespace string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *NamespaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("namespace %s: %s: %v", e.Namespace, e.Message, e.Cause)
	}
	return fmt.Sprintf("namespace %s: %s", e.Namespace, e.Message)
}

// Unwrap returns the underlying error.
func (e *NamespaceError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *NamespaceError) Is(target error) bool {
	_, ok := target.(*NamespaceError)
	return ok || errors.Is(e.Cause, target)
}

// NewNamespaceError creates a new NamespaceError.
func NewNamespaceError(namespace, message string, cause error) *NamespaceError {
	return &NamespaceError{Namespace: namespace, Message: message, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
