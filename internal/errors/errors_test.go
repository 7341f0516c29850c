package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetTypeAndStatus(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"internal", NewInternalError("broken", cause), ErrorTypeInternal, http.StatusInternalServerError},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("busy", nil), ErrorTypeConflict, http.StatusConflict},
		{"fingerprint", NewFingerprintError("unreadable", cause), ErrorTypeFingerprint, http.StatusUnprocessableEntity},
		{"paste", NewPasteResolutionError("not an image", nil), ErrorTypePasteResolution, http.StatusUnprocessableEntity},
		{"submission default status", NewSubmissionError("failed", 0, cause), ErrorTypeSubmission, http.StatusBadGateway},
		{"submission explicit status", NewSubmissionError("failed", http.StatusGatewayTimeout, cause), ErrorTypeSubmission, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
		})
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := NewPasteResolutionError("fetch failed", errors.New("connection refused"))
	assert.Equal(t, "paste_resolution: fetch failed (caused by: connection refused)", err.Error())

	bare := NewConflictError("submission in flight", nil)
	assert.Equal(t, "conflict: submission in flight", bare.Error())
}

func TestIsTypeSeesThroughWrapping(t *testing.T) {
	inner := NewSubmissionError("remote returned 500", http.StatusBadGateway, nil)
	wrapped := fmt.Errorf("submit: %w", inner)

	assert.True(t, IsType(wrapped, ErrorTypeSubmission))
	assert.False(t, IsType(wrapped, ErrorTypeValidation))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeSubmission))
	assert.Equal(t, http.StatusBadGateway, GetStatusCode(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("root")
	err := NewFingerprintError("hash failed", cause)
	assert.ErrorIs(t, err, cause)
}
