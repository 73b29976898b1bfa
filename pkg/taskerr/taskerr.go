// Package taskerr defines the unified error taxonomy for orchestration
// operations. Every failure, whether local (validation, admission) or
// remote (transport, backend), is mapped to one of these types before it
// reaches a caller.
package taskerr

import (
	"fmt"
	"net/http"
)

// Error represents a classified orchestration failure.
type Error struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Backend    string `json:"backend,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Retryable  bool   `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("[%s] %s (backend=%s)", e.Type, e.Message, e.Backend)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Error type constants.
const (
	TypeConfiguration      = "configuration_error"
	TypeValidation         = "validation_error"
	TypeRateLimit          = "rate_limit_exceeded"
	TypeTimeout            = "transport_timeout"
	TypeConnection         = "transport_connection"
	TypeTLS                = "transport_tls"
	TypeBackendAuth        = "backend_unauthorized"
	TypeBackendRateLimit   = "backend_rate_limited"
	TypeBackendUnavailable = "backend_unavailable"
	TypeBackend            = "backend_error"
)

// NewConfigurationError reports an invalid or missing backend configuration.
// Surfaced at registration time, never at call time.
func NewConfigurationError(backend, message string) *Error {
	return &Error{Type: TypeConfiguration, Message: message, Backend: backend}
}

// NewValidationError reports a malformed task request.
func NewValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// NewRateLimitError reports a denial by the local admission controller.
// The service never retries these; retry policy belongs to the caller.
func NewRateLimitError(backend string) *Error {
	return &Error{
		Type:      TypeRateLimit,
		Message:   "rate limit exceeded for backend",
		Backend:   backend,
		Retryable: true,
	}
}

// NewTimeoutError reports that the backend call exceeded its configured timeout.
func NewTimeoutError(backend string) *Error {
	return &Error{
		Type:      TypeTimeout,
		Message:   "request to backend timed out",
		Backend:   backend,
		Retryable: true,
	}
}

// NewConnectionError reports a failure to reach the backend endpoint.
func NewConnectionError(backend, detail string) *Error {
	return &Error{
		Type:      TypeConnection,
		Message:   fmt.Sprintf("could not connect to backend: %s", detail),
		Backend:   backend,
		Retryable: true,
	}
}

// NewTLSError reports a TLS handshake failure with the backend endpoint.
func NewTLSError(backend, detail string) *Error {
	return &Error{
		Type:    TypeTLS,
		Message: fmt.Sprintf("tls connection to backend failed: %s", detail),
		Backend: backend,
	}
}

// MapHTTPStatus classifies a non-2xx backend response. 401, 429, and 5xx get
// dedicated types so callers can distinguish credential problems from
// backend-side throttling and outages.
func MapHTTPStatus(backend string, status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("backend returned HTTP %d", status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return &Error{
			Type:       TypeBackendAuth,
			Message:    "unauthorized: invalid API key - " + message,
			Backend:    backend,
			StatusCode: status,
		}
	case status == http.StatusTooManyRequests:
		return &Error{
			Type:       TypeBackendRateLimit,
			Message:    "backend rate limit exceeded - " + message,
			Backend:    backend,
			StatusCode: status,
			Retryable:  true,
		}
	case status >= http.StatusInternalServerError:
		return &Error{
			Type:       TypeBackendUnavailable,
			Message:    "backend unavailable - " + message,
			Backend:    backend,
			StatusCode: status,
			Retryable:  true,
		}
	default:
		return &Error{
			Type:       TypeBackend,
			Message:    message,
			Backend:    backend,
			StatusCode: status,
		}
	}
}
