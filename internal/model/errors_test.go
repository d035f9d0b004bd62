package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err:  &APIError{Code: "TEST_ERROR", Message: "something went wrong"},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &APIError{Code: "TEST", Message: "test", Err: underlying}
	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}

	errNoWrap := &APIError{Code: "TEST", Message: "test"}
	if errNoWrap.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name        string
		err         *APIError
		wantCode    string
		wantMessage string
		wantStatus  int
		sentinel    error
	}{
		{"not found", NewNotFoundError("saved product"), "NOT_FOUND", "saved product not found", 404, ErrNotFound},
		{"validation", NewValidationError("cart", "lines required"), "VALIDATION_ERROR", "invalid cart: lines required", 400, ErrInvalidRequest},
		{"unauthorized", NewUnauthorizedError("bad webhook signature"), "UNAUTHORIZED", "bad webhook signature", 401, ErrUnauthorized},
		{"conflict", NewConflictError("saved product"), "CONFLICT", "saved product already exists", 409, ErrConflict},
		{"upstream", NewUpstreamError("Shopify", errors.New("connection refused")), "UPSTREAM_ERROR", "Shopify request failed", 502, ErrUpstreamError},
		{"rate limit", NewRateLimitError("Shopify"), "RATE_LIMITED", "Shopify rate limit exceeded, please retry later", 429, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMessage)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false, want true", tt.sentinel)
			}
		})
	}
}

func TestNewInternalError(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewInternalError(underlying)

	if err.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", err.StatusCode)
	}
	if err.Err != underlying {
		t.Error("wrapped error should be preserved")
	}
}

func TestAPIErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConflictError("saved product"))

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find *APIError in wrapped error")
	}
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("errors.Is should see ErrConflict through two wraps")
	}
}
