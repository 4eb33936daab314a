package server

import (
	"context"
	"errors"
	"fmt"

	"mcpstarter/mcp"
)

// ErrorKind classifies every failure the dispatch layer can report.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindDuplicateIdentifier ErrorKind = "duplicate_identifier"
	KindInvalidArgument     ErrorKind = "invalid_argument"
	KindUnsupported         ErrorKind = "unsupported"
	KindInternalError       ErrorKind = "internal_error"
	KindCancelled           ErrorKind = "cancelled"
)

// Error is the dispatch layer's error type. Parameter and Expected are only
// set for invalid-argument failures.
type Error struct {
	Kind      ErrorKind
	Message   string
	Parameter string
	Expected  string
}

func (e *Error) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%s: parameter %q (expected %s): %s", e.Kind, e.Parameter, e.Expected, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func notFoundError(category mcp.Category, identifier string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("no %s registered with identifier %q", category, identifier),
	}
}

func duplicateError(category mcp.Category, identifier string) *Error {
	return &Error{
		Kind:    KindDuplicateIdentifier,
		Message: fmt.Sprintf("%s %q is already registered", category, identifier),
	}
}

func invalidArgumentError(parameter, expected, message string) *Error {
	return &Error{
		Kind:      KindInvalidArgument,
		Message:   message,
		Parameter: parameter,
		Expected:  expected,
	}
}

func unsupportedError(what string) *Error {
	return &Error{
		Kind:    KindUnsupported,
		Message: fmt.Sprintf("client does not support %s", what),
	}
}

func internalError(message string) *Error {
	return &Error{Kind: KindInternalError, Message: message}
}

func cancelledError() *Error {
	return &Error{Kind: KindCancelled, Message: "invocation cancelled"}
}

// KindOf reports the classification of an error. Unclassified errors count
// as internal faults; context cancellation maps to KindCancelled.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternalError
}

// NewInvalidArgumentError reports a shape or type violation for a named
// parameter. Exposed for handlers that validate values beyond what the
// declared parameter types can express.
func NewInvalidArgumentError(parameter, expected, message string) *Error {
	return invalidArgumentError(parameter, expected, message)
}
