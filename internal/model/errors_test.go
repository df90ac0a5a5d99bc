package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIError_IsComparesCode(t *testing.T) {
	notFound := NewPersonNotFoundError(3)
	wrapped := fmt.Errorf("update: %w", notFound)

	if !errors.Is(wrapped, &APIError{Code: ErrCodePersonNotFound}) {
		t.Error("errors.Is should match by code through wrapping")
	}
	if errors.Is(wrapped, &APIError{Code: ErrCodeSourceUnavailable}) {
		t.Error("errors.Is should not match a different code")
	}
	if errors.Is(wrapped, errors.New("PERSON_NOT_FOUND")) {
		t.Error("errors.Is should not match a non-APIError target")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewInvalidIDError("abc")
	if got := err.Error(); !strings.HasPrefix(got, "[INVALID_ID] ") || !strings.Contains(got, "abc") {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		code     string
		category string
	}{
		{"not found", NewPersonNotFoundError(7), ErrCodePersonNotFound, "person"},
		{"source unavailable", NewSourceUnavailableError("timeout"), ErrCodeSourceUnavailable, "source"},
		{"refresh canceled", NewRefreshCanceledError(), ErrCodeRefreshCanceled, "source"},
		{"invalid request", NewInvalidRequestError("nameは空にできません"), ErrCodeInvalidRequest, "validation"},
		{"invalid id", NewInvalidIDError("x"), ErrCodeInvalidID, "validation"},
		{"internal", NewInternalError(), ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Category = %q, want %q", tt.err.Category, tt.category)
			}
			if tt.err.Message == "" || tt.err.Action == "" {
				t.Errorf("Message and Action must be set: %+v", tt.err)
			}
		})
	}

	if msg := NewSourceUnavailableError("503 Service Unavailable").Message; !strings.Contains(msg, "503 Service Unavailable") {
		t.Errorf("source error should surface the reason, got %q", msg)
	}
}
