package gosession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind names one classification of a failed HTTP exchange.
//
//	Docs: docs/classify.md
type ErrorKind string

const (
	// KindValidation is an exported constant or variable used by the session core.
	KindValidation ErrorKind = "validation"
	// KindAuthentication is an exported constant or variable used by the session core.
	KindAuthentication ErrorKind = "authentication"
	// KindAuthorization is an exported constant or variable used by the session core.
	KindAuthorization ErrorKind = "authorization"
	// KindNotFound is an exported constant or variable used by the session core.
	KindNotFound ErrorKind = "not_found"
	// KindConflict is an exported constant or variable used by the session core.
	KindConflict ErrorKind = "conflict"
	// KindRateLimited is an exported constant or variable used by the session core.
	KindRateLimited ErrorKind = "rate_limited"
	// KindServer is an exported constant or variable used by the session core.
	KindServer ErrorKind = "server"
	// KindNetwork is an exported constant or variable used by the session core.
	KindNetwork ErrorKind = "network"
	// KindTimeout is an exported constant or variable used by the session core.
	KindTimeout ErrorKind = "timeout"
)

// String describes the string operation and its observable behavior.
func (k ErrorKind) String() string { return string(k) }

// AuthError defines a public type used by goSession APIs.
//
// AuthError is the classified form of a failed HTTP exchange. Classification
// happens exactly once, at the transport boundary; everything upstream
// inspects the Kind instead of re-interpreting statuses. Message is always
// safe to show a user; Detail carries the technical cause.
//
//	Docs: docs/classify.md
type AuthError struct {
	Kind   ErrorKind
	Status int

	// Message is the short user-safe text for this kind.
	Message string

	// Detail is the technical description from the response body or the
	// underlying error. Never shown to users.
	Detail string

	// Fields maps field names to validation messages for KindValidation.
	Fields map[string]string

	// RequiredPermissions carries permission hints from a KindAuthorization
	// response when the backend provides them.
	RequiredPermissions []string

	// RetryAfter is the server-requested wait for KindRateLimited, zero
	// when the server did not send one.
	RetryAfter time.Duration

	// Err is the underlying transport error, nil for HTTP-status failures.
	Err error
}

// Error describes the error operation and its observable behavior.
func (e *AuthError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, detail)
}

// Unwrap describes the unwrap operation and its observable behavior.
func (e *AuthError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind, so
// errors.Is(err, ErrAuthentication) works on classified errors.
func (e *AuthError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *AuthError) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindAuthentication:
		return ErrAuthentication
	case KindAuthorization:
		return ErrAuthorization
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	case KindNetwork:
		return ErrNetwork
	case KindTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// userMessage returns the fixed user-safe text for a kind. The text never
// includes technical detail.
func userMessage(kind ErrorKind) string {
	switch kind {
	case KindValidation:
		return "Please check the highlighted fields and try again."
	case KindAuthentication:
		return "Your session has expired. Please sign in again."
	case KindAuthorization:
		return "You do not have permission to perform this action."
	case KindNotFound:
		return "The requested resource could not be found."
	case KindConflict:
		return "The request conflicts with the current state. Refresh and try again."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case KindServer:
		return "The server encountered an error. Please try again shortly."
	case KindNetwork:
		return "Unable to reach the server. Check your connection."
	case KindTimeout:
		return "The request timed out. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// errorBody is the error payload shape the admin backend and the identity
// provider both produce, superset of the two.
type errorBody struct {
	Message             string            `json:"message"`
	ErrorCode           string            `json:"error"`
	ErrorDescription    string            `json:"error_description"`
	Errors              map[string]string `json:"errors"`
	RequiredPermissions []string          `json:"requiredPermissions"`
}

// Classifier defines a public type used by goSession APIs.
//
// Classifier turns failed HTTP exchanges into [AuthError] values and owns
// the retry backoff policy.
//
//	Docs: docs/classify.md
type Classifier struct {
	base time.Duration
	max  time.Duration
}

// NewClassifier describes the newclassifier operation and its observable behavior.
//
// Zero durations take the defaults (1s base, 30s cap).
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{base: cfg.BaseRetryDelay, max: cfg.MaxRetryDelay}
	if c.base <= 0 {
		c.base = time.Second
	}
	if c.max < c.base {
		c.max = 30 * time.Second
	}
	return c
}

// Classify describes the classify operation and its observable behavior.
//
// Exactly one of resp/err describes the failure: a non-nil err means no
// response was received (network or timeout); otherwise the response status
// is mapped. body is the already-read response body, which may be nil.
// Classify never reads resp.Body. A nil resp with a nil err returns a
// KindNetwork error rather than panicking.
func (c *Classifier) Classify(resp *http.Response, body []byte, err error) *AuthError {
	if err != nil {
		return classifyTransport(err)
	}
	if resp == nil {
		return &AuthError{
			Kind:    KindNetwork,
			Message: userMessage(KindNetwork),
			Detail:  "no response received",
		}
	}

	var parsed errorBody
	if len(body) > 0 {
		// Body parse failures are fine, the status alone classifies.
		_ = json.Unmarshal(body, &parsed)
	}
	detail := firstNonEmpty(parsed.Message, parsed.ErrorDescription, parsed.ErrorCode)

	kind := kindForStatus(resp.StatusCode)
	ae := &AuthError{
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: userMessage(kind),
		Detail:  detail,
	}
	switch kind {
	case KindValidation:
		if len(parsed.Errors) > 0 {
			ae.Fields = parsed.Errors
		}
	case KindAuthorization:
		if len(parsed.RequiredPermissions) > 0 {
			ae.RequiredPermissions = parsed.RequiredPermissions
		}
	case KindRateLimited:
		ae.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return ae
}

// kindForStatus maps an HTTP status to its kind. Statuses outside the
// taxonomy classify as server failures, which keeps them retryable.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindServer
	}
}

// classifyTransport splits no-response failures into timeout (deadline,
// cancellation, net timeouts) and network (everything else).
func classifyTransport(err error) *AuthError {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = KindTimeout
	} else {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			kind = KindTimeout
		}
	}
	return &AuthError{
		Kind:    kind,
		Message: userMessage(kind),
		Detail:  err.Error(),
		Err:     err,
	}
}

// IsRetryable describes the isretryable operation and its observable behavior.
//
// Only network, timeout, and server classifications are retryable.
// Authentication is recovered through a forced token refresh, not a retry of
// the same exchange, so it reports false here.
func IsRetryable(err error) bool {
	var ae *AuthError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Kind {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// RetryDelay describes the retrydelay operation and its observable behavior.
//
// For rate-limited errors carrying a server retry-after, that wait wins,
// capped at the configured maximum. Everything else backs off exponentially
// from the base delay: attempt 1 waits base, attempt 2 waits 2x base, and so
// on up to the cap. Attempts below 1 are treated as 1.
func (c *Classifier) RetryDelay(err error, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	var ae *AuthError
	if errors.As(err, &ae) && ae.Kind == KindRateLimited && ae.RetryAfter > 0 {
		if ae.RetryAfter > c.max {
			return c.max
		}
		return ae.RetryAfter
	}

	d := c.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.max {
			return c.max
		}
	}
	if d > c.max {
		d = c.max
	}
	return d
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
