// Package errors provides structured error types for the latex2image service.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - A strict split between what is logged and what reaches the caller
//
// # Error Codes
//
// Codes fall into three groups:
//   - Validation (MISSING_INPUT, INVALID_*, UNSUPPORTED_COMMAND): user-correctable,
//     the message is shown to the caller verbatim
//   - Conversion (COMPILATION_*, TRANSCODE_ERROR): most likely malformed input, the
//     caller sees a generic message and diagnostics stay in the server log
//   - Infrastructure (WORKSPACE_CONFLICT, INTERNAL_ERROR): should not happen, logged
//     and surfaced as a generic failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidScale, "Invalid scale.")
//	if errors.Is(err, errors.ErrCodeInvalidScale) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTranscode, origErr, "rasterize %s", path)
//
//	// What the caller may see
//	msg := errors.PublicMessage(err)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeMissingInput       Code = "MISSING_INPUT"
	ErrCodeInvalidScale       Code = "INVALID_SCALE"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeUnsupportedCommand Code = "UNSUPPORTED_COMMAND"
	ErrCodeInvalidIdentity    Code = "INVALID_IDENTITY"

	// Conversion errors
	ErrCodeCompilationTimeout Code = "COMPILATION_TIMEOUT"
	ErrCodeCompilation        Code = "COMPILATION_ERROR"
	ErrCodeTranscode          Code = "TRANSCODE_ERROR"

	// Infrastructure errors
	ErrCodeWorkspaceConflict Code = "WORKSPACE_CONFLICT"
	ErrCodeInternal          Code = "INTERNAL_ERROR"
)

// Messages returned to callers for non-validation failures.
const (
	MsgConversionFailed = "Error converting LaTeX to image. Please ensure the input is valid."
	MsgInternal         = "Internal error. Please try again later."
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// Diagnostics holds subprocess output for server-side logging only.
	Diagnostics string
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

// WithDiagnostics attaches subprocess output to the error and returns it.
func (e *Error) WithDiagnostics(diag string) *Error {
	e.Diagnostics = diag
	return e
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

// Diagnostics returns the subprocess diagnostics attached to err, if any.
func Diagnostics(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Diagnostics
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

// IsValidation reports whether err is a user-correctable validation failure.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingInput, ErrCodeInvalidScale, ErrCodeInvalidFormat, ErrCodeUnsupportedCommand:
		return true
	}
	return false
}

// PublicMessage returns the only text about err that may be sent to a caller.
// Validation messages pass through; conversion failures collapse into one
// generic message; everything else is reported as an internal error.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return UserMessage(err)
	}
	switch GetCode(err) {
	case ErrCodeCompilation, ErrCodeCompilationTimeout, ErrCodeTranscode:
		return MsgConversionFailed
	}
	return MsgInternal
}
