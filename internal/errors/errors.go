// Package errors provides error codes for the memory capsule service.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies an error for HTTP mapping and logging.
type ErrorCode string

const (
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrTimeout    ErrorCode = "TIMEOUT"

	// Creation pipeline errors
	ErrUpstreamWrite ErrorCode = "UPSTREAM_WRITE_FAILED"
	ErrComposition   ErrorCode = "COMPOSITION_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain,
// or ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// LookupCause tags why a memory lookup failed. Callers only ever see
// NOT_FOUND; the cause is for logs.
type LookupCause string

const (
	CauseMissing           LookupCause = "missing"
	CauseTransientFetch    LookupCause = "transient_fetch"
	CauseMalformedDocument LookupCause = "malformed_document"
)

// LookupError records the cause of a failed lookup.
type LookupError struct {
	Cause LookupCause
	Key   string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup %s (%s): %v", e.Key, e.Cause, e.Err)
	}
	return fmt.Sprintf("lookup %s (%s)", e.Key, e.Cause)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NotFound builds the NOT_FOUND error returned by lookups.
func NotFound(cause LookupCause, key string, err error) *AppError {
	return Wrap(ErrNotFound, "memory not found or could not be loaded", &LookupError{
		Cause: cause,
		Key:   key,
		Err:   err,
	})
}

// CauseOf extracts the lookup cause from err, or "" if err carries none.
func CauseOf(err error) LookupCause {
	var lookupErr *LookupError
	if stderrors.As(err, &lookupErr) {
		return lookupErr.Cause
	}
	return ""
}
