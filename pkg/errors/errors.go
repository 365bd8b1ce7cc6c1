// Package errors provides structured error types for the depthmontage pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the rendering pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes separate recoverable per-sequence failures (counted in the
// final tally) from failures that abort a whole render:
//   - INVALID_*: input validation failures
//   - SOURCE_MISSING, NO_DATA: degraded-input conditions
//   - SHAPE_MISMATCH, GEOMETRY_MISSING: hard failures
//   - CONVERSION_FAILED: non-fatal output conversion failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRegion, "invalid region literal: %s", raw)
//	if errors.Is(err, errors.ErrCodeInvalidRegion) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSourceMissing, origErr, "failed to parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidRegion Code = "INVALID_REGION"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Degraded-input conditions (pipeline continues)
	ErrCodeSourceMissing Code = "SOURCE_MISSING"
	ErrCodeNoData        Code = "NO_DATA"

	// Hard failures (render aborts)
	ErrCodeShapeMismatch   Code = "SHAPE_MISMATCH"
	ErrCodeGeometryMissing Code = "GEOMETRY_MISSING"
	ErrCodeDiagramFailed   Code = "DIAGRAM_FAILED"

	// Output errors
	ErrCodeConversionFailed Code = "CONVERSION_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
