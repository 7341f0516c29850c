package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"

	// ErrorTypeFingerprint is non-fatal; callers fall back to the bare name.
	ErrorTypeFingerprint ErrorType = "fingerprint"
	// ErrorTypePasteResolution is non-fatal; the paste is ignored.
	ErrorTypePasteResolution ErrorType = "paste_resolution"
	// ErrorTypeSubmission is surfaced to the caller of Submit.
	ErrorTypeSubmission ErrorType = "submission"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, cause error) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewFingerprintError reports a failure to read or hash an image prefix
func NewFingerprintError(message string, cause error) *AppError {
	return newError(ErrorTypeFingerprint, http.StatusUnprocessableEntity, message, cause)
}

// NewPasteResolutionError reports a pasted URL that could not be turned into an image
func NewPasteResolutionError(message string, cause error) *AppError {
	return newError(ErrorTypePasteResolution, http.StatusUnprocessableEntity, message, cause)
}

// NewSubmissionError reports a failed round trip to the processing endpoint
func NewSubmissionError(message string, status int, cause error) *AppError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return newError(ErrorTypeSubmission, status, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
