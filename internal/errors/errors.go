package errors

import (
	"fmt"
)

// SemdexError is the structured error type for Semdex.
// It provides rich context for error handling, logging, and user presentation.
type SemdexError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *SemdexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SemdexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SemdexError.
func (e *SemdexError) Is(target error) bool {
	if t, ok := target.(*SemdexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SemdexError) WithDetail(key, value string) *SemdexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SemdexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SemdexError {
	return &SemdexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SemdexError from an existing error.
// The error's message becomes the SemdexError message.
func Wrap(code string, err error) *SemdexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the pipeline.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SemdexError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SemdexError.
// Returns empty string if not a SemdexError.
func GetCode(err error) string {
	if se, ok := err.(*SemdexError); ok {
		return se.Code
	}
	return ""
}
