package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrArtifactCount  = "ARTIFACT_COUNT_MISMATCH"
	ErrBackendFailure = "BACKEND_FAILURE"
	ErrArchiveError   = "ARCHIVE_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ArtifactCountError is the single caller precondition violation in the core:
// a template variant that requires artifacts was given the wrong count. It is
// raised before any backend request is constructed and must never be conflated
// with backend failures.
type ArtifactCountError struct {
	Template string `json:"template"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

// Error implements the error interface
func (e *ArtifactCountError) Error() string {
	return fmt.Sprintf("template %q requires exactly %d artifacts, got %d",
		e.Template, e.Expected, e.Actual)
}

// NewArtifactCountError creates a new ArtifactCountError
func NewArtifactCountError(template string, expected, actual int) *ArtifactCountError {
	return &ArtifactCountError{Template: template, Expected: expected, Actual: actual}
}

// BackendErrorKind discriminates generation backend failures for callers that
// present quota and credential problems differently.
type BackendErrorKind string

const (
	BackendQuota BackendErrorKind = "QUOTA_EXCEEDED"
	BackendAuth  BackendErrorKind = "INVALID_CREDENTIAL"
	BackendOther BackendErrorKind = "BACKEND_ERROR"
)

// BackendError wraps a generation backend failure. The core performs no retry
// and no interpretation beyond classifying the kind; the underlying error is
// preserved for the caller.
type BackendError struct {
	Kind BackendErrorKind
	Err  error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend failure (%s): %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying backend error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new BackendError
func NewBackendError(kind BackendErrorKind, err error) *BackendError {
	return &BackendError{Kind: kind, Err: err}
}

// IsArtifactCountError reports whether err is the assembler precondition
// violation.
func IsArtifactCountError(err error) bool {
	var ace *ArtifactCountError
	return errors.As(err, &ace)
}

// IsBackendError reports whether err originated from the generation backend,
// returning the wrapped error for inspection.
func IsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
