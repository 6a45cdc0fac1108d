package utils

import (
	"fmt"
	"runtime"
)

// AppError represents an application error with context
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an AppError with the same code, so callers can
// match on the sentinels below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewAppError creates a new application error
func NewAppError(code, message string, details ...string) *AppError {
	_, file, line, _ := runtime.Caller(1)

	err := &AppError{
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
	}

	if len(details) > 0 {
		err.Details = details[0]
	}

	return err
}

// WithStackTrace adds stack trace to the error
func (e *AppError) WithStackTrace() *AppError {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// Common error codes
const (
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// A source log is malformed, crashed or was killed outside the fault window.
	ErrCodeParse = "PARSE_ERROR"
	// The engine under test broke an ordering or uniqueness guarantee.
	ErrCodeInvariant = "INVARIANT_VIOLATION"
	// No qualifying heights survived filtering.
	ErrCodeEmptyResult = "EMPTY_RESULT"
)

// Sentinels for errors.Is matching.
var (
	ErrParse         = &AppError{Code: ErrCodeParse}
	ErrInvariant     = &AppError{Code: ErrCodeInvariant}
	ErrEmptyResult   = &AppError{Code: ErrCodeEmptyResult}
	ErrNotFound      = &AppError{Code: ErrCodeNotFound}
	ErrConfiguration = &AppError{Code: ErrCodeConfiguration}
)

// NewParseError reports an unusable source log.
func NewParseError(message string, details ...string) *AppError {
	return newAt(ErrCodeParse, message, details)
}

// NewInvariantError reports a broken guarantee of the engine under test.
func NewInvariantError(message string, details ...string) *AppError {
	return newAt(ErrCodeInvariant, message, details)
}

// NewEmptyResultError reports a run without usable blocks.
func NewEmptyResultError(message string, details ...string) *AppError {
	return newAt(ErrCodeEmptyResult, message, details)
}

func newAt(code, message string, details []string) *AppError {
	_, file, line, _ := runtime.Caller(2)
	err := &AppError{Code: code, Message: message, File: file, Line: line}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}
