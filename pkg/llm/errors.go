package llm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorType classifies an LLM or embedding failure.
type ErrorType string

const (
	ErrorTypeNone           ErrorType = ""
	ErrorTypeEndpoint       ErrorType = "endpoint"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeModel          ErrorType = "model"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error is a classified provider failure. Generation and retrieval code
// inspects Retryable to decide whether a preset or item is worth another
// attempt before it is skipped.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
	Endpoint   string
}

func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry package's RetryableError interface, so
// retry can check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError turns a provider failure into a classified Error. Providers
// surface failures as free-form strings, so classification is pattern
// matching over the message plus any embedded HTTP status code. An error
// that already is an *Error comes back unchanged.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}
	var known *Error
	if errors.As(err, &known) {
		return known
	}

	raw := err.Error()
	lower := strings.ToLower(raw)
	status := embeddedStatusCode(raw)

	switch {
	case strings.Contains(raw, "401"), containsAny(lower, "unauthorized", "invalid api key"):
		return withStatus(ErrorTypeAuth, "authentication failed", false, err, status)
	case strings.Contains(lower, "model") && containsAny(lower, "not found", "does not exist"):
		return withStatus(ErrorTypeModel, "model not found", false, err, status)
	case strings.Contains(raw, "404"):
		return withStatus(ErrorTypeEndpoint, "endpoint not found", false, err, status)
	case containsAny(lower, "connection refused", "no such host"):
		return withStatus(ErrorTypeEndpoint, "connection failed", true, err, status)
	case containsAny(lower, "timeout", "deadline exceeded", "context canceled"):
		return withStatus(ErrorTypeEndpoint, "request timeout", true, err, status)
	case containsAny(lower, "invalid request", "bad request"):
		return withStatus(ErrorTypeInvalidRequest, "invalid request", false, err, status)
	case strings.Contains(raw, "429"), strings.Contains(lower, "rate limit"):
		return withStatus(ErrorTypeRateLimit, "rate limited", true, err, status)
	case containsAny(lower, "cuda error", "gpu error", "out of memory"):
		return withStatus(ErrorTypeEndpoint, "GPU error", true, err, status)
	case containsAny(raw, "500", "502", "503", "504"):
		return withStatus(ErrorTypeEndpoint, "server error", true, err, status)
	}
	return withStatus(ErrorTypeUnknown, "llm error", false, err, status)
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Retryable
	}
	return false
}

func withStatus(t ErrorType, message string, retryable bool, cause error, status int) *Error {
	e := NewError(t, message, retryable, cause)
	e.StatusCode = status
	return e
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// embeddedStatusCode pulls the first recognizable HTTP status code out of a
// provider message.
func embeddedStatusCode(s string) int {
	for _, code := range [...]int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(s, strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}
