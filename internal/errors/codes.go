// Package errors provides structured error handling for Semdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, extraction)
//   - 4XX: Validation errors
//   - 5XX: Internal / backend errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and extraction I/O errors.
	// These are recoverable per item: the file is counted as failed and
	// processing continues.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates backend or unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the pipeline must stop.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but processing continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299), recoverable per file
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnreadable  = "ERR_202_FILE_UNREADABLE"
	ErrCodeFileTooLarge    = "ERR_203_FILE_TOO_LARGE"
	ErrCodeUnsupportedType = "ERR_204_UNSUPPORTED_TYPE"
	ErrCodeCorruptIndex    = "ERR_205_CORRUPT_INDEX"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidRoot  = "ERR_402_INVALID_ROOT"
	ErrCodeQueryEmpty   = "ERR_403_QUERY_EMPTY"

	// Internal / backend errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeSearchTimeout   = "ERR_504_SEARCH_TIMEOUT"
	ErrCodeStoreFailed     = "ERR_505_STORE_FAILED"
	ErrCodeQueueFailed     = "ERR_506_QUEUE_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeQueueFailed:
		// No invariant can be trusted past these points.
		return SeverityFatal
	case ErrCodeSearchTimeout:
		return SeverityWarning
	default:
		return SeverityError
	}
}
