package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error_WithStatusCode(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
	}

	result := err.Error()
	if !strings.Contains(result, "HTTP 503") {
		t.Errorf("expected error message to contain 'HTTP 503', got: %s", result)
	}
	if !strings.Contains(result, "server error") {
		t.Errorf("expected error message to contain 'server error', got: %s", result)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewError(ErrorTypeUnknown, "wrapper", false, cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{
			name:          "unauthorized",
			err:           errors.New("error, status code: 401, message: invalid api key"),
			wantType:      ErrorTypeAuth,
			wantRetryable: false,
		},
		{
			name:          "model not found",
			err:           errors.New("the model 'gpt-5000' does not exist"),
			wantType:      ErrorTypeModel,
			wantRetryable: false,
		},
		{
			name:          "endpoint not found",
			err:           errors.New("status code: 404 page not found"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: false,
		},
		{
			name:          "connection refused",
			err:           errors.New("dial tcp 127.0.0.1:8000: connection refused"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "deadline exceeded",
			err:           errors.New("context deadline exceeded"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "rate limited",
			err:           errors.New("error, status code: 429, message: rate limit reached"),
			wantType:      ErrorTypeRateLimit,
			wantRetryable: true,
		},
		{
			name:          "gpu error",
			err:           errors.New("CUDA error: out of memory"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "server error",
			err:           errors.New("error, status code: 503, message: service unavailable"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "unknown",
			err:           errors.New("something odd happened"),
			wantType:      ErrorTypeUnknown,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			if classified.Type != tt.wantType {
				t.Errorf("ClassifyError() type = %s, want %s", classified.Type, tt.wantType)
			}
			if classified.Retryable != tt.wantRetryable {
				t.Errorf("ClassifyError() retryable = %v, want %v", classified.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestClassifyError_PassesThroughStructuredError(t *testing.T) {
	original := NewError(ErrorTypeAuth, "authentication failed", false, nil)
	wrapped := fmt.Errorf("complete: %w", original)

	classified := ClassifyError(wrapped)
	if classified != original {
		t.Errorf("expected the original *Error back, got %+v", classified)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := NewError(ErrorTypeRateLimit, "rate limited", true, nil)
	if !IsRetryable(fmt.Errorf("wrap: %w", retryable)) {
		t.Error("expected wrapped retryable error to report retryable")
	}
	if IsRetryable(errors.New("plain error")) {
		t.Error("plain errors are not retryable")
	}
}
