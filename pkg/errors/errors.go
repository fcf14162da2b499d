// Package errors provides structured error types for graphgen.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The layout and extraction algorithms are total over well-formed graphs, so
// every code describes a failure at an I/O boundary or a caller mistake:
//   - UNKNOWN_NODE, DUPLICATE_ID: graph construction or lookup errors
//   - INVALID_INPUT: malformed options, names or requests
//   - IMPORT: the input graph could not be read (fatal to a run)
//   - EXPORT_IO: an export collaborator failed to write its output
//   - CANCELED: the run was interrupted
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "rounds must be >= 0, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExportIO, origErr, "export %s", name)
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeUnknownNode  Code = "UNKNOWN_NODE"
	ErrCodeDuplicateID  Code = "DUPLICATE_ID"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeImport       Code = "IMPORT"
	ErrCodeExportIO     Code = "EXPORT_IO"
	ErrCodeCanceled     Code = "CANCELED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Classify returns the code for err. Context errors anywhere in the chain
// classify as CANCELED. Otherwise coded errors keep their code and graph
// sentinels map onto the matching code. Everything else is internal.
// Returns empty string for nil.
func Classify(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case GetCode(err) != "":
		return GetCode(err)
	case errors.Is(err, graph.ErrUnknownNode):
		return ErrCodeUnknownNode
	case errors.Is(err, graph.ErrDuplicateID):
		return ErrCodeDuplicateID
	case errors.Is(err, graph.ErrInvalidNodeID):
		return ErrCodeInvalidInput
	default:
		return ErrCodeInternal
	}
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// ExitCode maps err onto a process exit status: 0 for nil, 130 for
// cancellation and 1 otherwise.
func ExitCode(err error) int {
	switch Classify(err) {
	case "":
		return 0
	case ErrCodeCanceled:
		return 130
	default:
		return 1
	}
}
