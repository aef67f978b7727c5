package insight

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured means no API key was provided
	ErrNotConfigured = errors.New("llm api key not configured")
	// ErrInvalidCredentials means the provider rejected the API key
	ErrInvalidCredentials = errors.New("llm credentials rejected")
	// ErrUnavailable covers network failures, timeouts, rate limiting and
	// provider-side errors.
	ErrUnavailable = errors.New("llm service unavailable")
)

// APIError is a non-2xx answer from the completions endpoint
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm api returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, code, message string) *APIError {
	e := &APIError{StatusCode: status, Code: code, Message: message}
	lower := strings.ToLower(message)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden,
		code == "invalid_api_key",
		strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "invalid_api_key"):
		e.kind = ErrInvalidCredentials
	case status == http.StatusTooManyRequests || status >= 500:
		e.kind = ErrUnavailable
	}
	return e
}

// outcome labels an error for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// FallbackMessage returns the text shown in place of an insight when the
// call failed.
func FallbackMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "AI analysis is not configured. Set GROQ_API_KEY to enable it."
	case errors.Is(err, ErrInvalidCredentials):
		return "AI analysis unavailable: the API key was rejected. Check GROQ_API_KEY."
	case errors.Is(err, ErrUnavailable):
		return "AI analysis is temporarily unavailable. Try again in a moment."
	default:
		return "AI analysis unavailable."
	}
}
