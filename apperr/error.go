// Package apperr provides the unified error type shared across ArgusLM's
// core components and HTTP boundary.
package apperr

import "fmt"

// Code is a stable, machine-checkable error classification.
type Code string

const (
	CodeConfig              Code = "CONFIG_ERROR"
	CodeAuthFailure         Code = "AUTH_FAILURE"
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeTimeout             Code = "TIMEOUT"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeStorage             Code = "STORAGE_ERROR"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is a structured error carrying a code, an HTTP status, and a
// retryability flag, mirroring the provider-facing failure taxonomy of §4.1
// and the HTTP boundary contract of §7.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	Retryable  bool
	Provider   string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a new *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// HTTPStatusOf maps a Code to its default HTTP status per §6/§7, used when
// the error wasn't already tagged with an explicit status.
func HTTPStatusOf(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return 422
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeAuthFailure:
		return 401
	case CodeRateLimited:
		return 429
	case CodeTimeout:
		return 504
	case CodeServiceUnavailable:
		return 503
	case CodeStorage, CodeInternal, CodeConfig:
		return 500
	default:
		return 500
	}
}
