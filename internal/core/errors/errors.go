package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - these represent failures of the analysis pipeline
var (
	// Ingestion
	ErrLoadFailure       = errors.New("input could not be decoded into a table")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUploadTooLarge    = errors.New("upload exceeds maximum size")
	ErrEmptyUpload       = errors.New("upload is empty")

	// Schema
	ErrSchemaIncomplete = errors.New("required columns are missing")

	// Programming contract: an aggregation was invoked without its grouping column
	ErrColumnMissing = errors.New("column missing")

	// Datasets and selections
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrInvalidSelection = errors.New("invalid filter selection")
	ErrInvalidDateRange = errors.New("date range start is after its end")

	// Authentication
	ErrUnauthorized = errors.New("unauthorized")

	// Generic
	ErrNotFound = errors.New("resource not found")
)

// LoadError reports why an input could not be decoded. It matches ErrLoadFailure.
type LoadError struct {
	Reason string
	Err    error
}

// NewLoadError creates a LoadError with a human-readable reason.
func NewLoadError(reason string, err error) *LoadError {
	return &LoadError{Reason: reason, Err: err}
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load failure: %s: %v", e.Reason, e.Err)
	}
	return "load failure: " + e.Reason
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailure
}

// SchemaError lists the required columns absent from a table. It matches ErrSchemaIncomplete.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaIncomplete
}

// ColumnMissingError is a precondition violation: an operation was called on a table
// lacking a column it needs. Callers are expected to validate the schema first.
type ColumnMissingError struct {
	Column    string
	Operation string
}

func (e *ColumnMissingError) Error() string {
	return fmt.Sprintf("%s: column %q not present in table", e.Operation, e.Column)
}

func (e *ColumnMissingError) Is(target error) bool {
	return target == ErrColumnMissing
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewPayloadTooLargeError(message string) *AppError {
	return &AppError{
		Err:        ErrUploadTooLarge,
		Message:    message,
		Code:       "UPLOAD_TOO_LARGE",
		StatusCode: 413,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
