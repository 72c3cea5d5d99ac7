package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidConfig is an exported constant or variable used by the session core.
var ErrInvalidConfig = errors.New("provider config invalid")

// ErrDiscovery is an exported constant or variable used by the session core.
var ErrDiscovery = errors.New("oidc discovery failed")

// ErrMissingRefreshToken is an exported constant or variable used by the session core.
var ErrMissingRefreshToken = errors.New("no refresh token")

// ErrSessionExpired is an exported constant or variable used by the session core.
// Joined onto a refresh failure when the provider rejected the refresh token
// itself, so callers can tell a dead session from a failed exchange.
var ErrSessionExpired = errors.New("session expired")

// ErrNoProfileEndpoint is an exported constant or variable used by the session core.
var ErrNoProfileEndpoint = errors.New("no profile endpoint configured")

// StatusError defines a public type used by goSession APIs.
//
// It carries a non-2xx identity-provider response upward without deciding
// what the failure means. Classification happens exactly once, in the
// Controller.
type StatusError struct {
	// StatusCode is the HTTP status of the provider response.
	StatusCode int

	// Header holds the response headers. Retry-After is the one that
	// matters downstream.
	Header http.Header

	// Body holds the response body, already read and capped.
	Body []byte
}

// Error describes the error operation and its observable behavior.
func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("provider returned http %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned http %d: %s", e.StatusCode, truncateBody(e.Body, 200))
}

func truncateBody(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
