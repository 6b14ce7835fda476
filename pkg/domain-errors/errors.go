// Package dErrors provides coded domain errors shared across modules.
//
// Services return these instead of raw errors so that transport layers can
// map them to HTTP statuses without inspecting error strings, and so that
// tests can assert on error categories rather than messages.
//
// Usage:
//
//	return dErrors.New(dErrors.CodeNotFound, "verification not found")
//	return dErrors.Wrap(err, dErrors.CodeInternal, "save verification")
//	if dErrors.HasCode(err, dErrors.CodeNotFound) { ... }
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error into a stable, transport-mappable category.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a domain error carrying a classification code and an optional cause.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error with a code and message, preserving the
// cause for errors.Is / errors.As chains. Wrapping nil returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap exposes the cause for the standard errors package.
func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two domain errors by code and message,
// so tests can compare against a freshly constructed error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code && e.message == t.message
}

// Code returns the classification code.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable message without the code prefix.
func (e *Error) Message() string { return e.message }

// GetCode extracts the code from an error chain.
// Unclassified errors report CodeInternal.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is is a readability alias for HasCode, for use in test assertions.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message extracts the human-readable message from an error chain.
// Unclassified errors return their full Error() string.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
