package middleware

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	gosession "github.com/MrEthical07/goSession"
)

const (
	defaultForcedPerMinute = 30
	defaultForcedBurst     = 5

	// drainLimit bounds how much of a rejected response body is read before
	// the connection is reused for the replay.
	drainLimit = 32 << 10
)

// requestIDHeader carries the correlation ID from [gosession.WithRequestID]
// on outbound requests.
const requestIDHeader = "X-Request-ID"

// Transport is an [http.RoundTripper] that authenticates outbound requests
// through a [gosession.Controller]. On a 401 response it forces one token
// refresh and replays the request exactly once; a second 401 is returned to
// the caller. Forced refreshes share the Controller's single-flight path and
// are rate-limited so a burst of rejected requests cannot hammer the
// provider.
//
//	Docs: docs/middleware.md
type Transport struct {
	base       http.RoundTripper
	controller *gosession.Controller
	limiter    *rate.Limiter
	retry      bool
}

// NewTransport builds a [Transport] over base, which defaults to
// [http.DefaultTransport] when nil. Retry and limiter settings come from the
// Controller's transport config.
func NewTransport(c *gosession.Controller, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	cfg := c.TransportConfig()
	perMinute := cfg.ForcedRefreshPerMinute
	if perMinute <= 0 {
		perMinute = defaultForcedPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultForcedBurst
	}

	return &Transport{
		base:       base,
		controller: c,
		limiter:    rate.NewLimiter(rate.Every(time.Minute / time.Duration(perMinute)), burst),
		retry:      cfg.RetryOnAuthFailure,
	}
}

// RoundTrip implements [http.RoundTripper]. The caller's request is never
// mutated; replays require req.GetBody when a body is present.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	authed, err := attach(t.controller, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(authed)
	if err != nil {
		return nil, err
	}

	if !t.shouldRetry(req, resp) {
		return resp, nil
	}

	if !t.limiter.Allow() {
		t.controller.Metrics().Inc(gosession.MetricRefreshThrottled)
		return resp, nil
	}

	if err := t.controller.RefreshNow(req.Context()); err != nil {
		// The refresh outcome already flowed through the session state
		// machine; the caller gets the original rejection.
		return resp, nil
	}

	replay, err := replayRequest(t.controller, req)
	if err != nil {
		return resp, nil
	}

	drain(resp)

	return t.base.RoundTrip(replay)
}

func (t *Transport) shouldRetry(req *http.Request, resp *http.Response) bool {
	if !t.retry || resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	// A consumed body without GetBody cannot be replayed.
	return req.Body == nil || req.GetBody != nil
}

// StrictTransport is an [http.RoundTripper] that attaches the Authorization
// header and nothing else. Requests without an authenticated session fail
// fast with [gosession.ErrLoginRequired]; rejected responses are returned
// untouched.
type StrictTransport struct {
	base       http.RoundTripper
	controller *gosession.Controller
}

// NewStrictTransport builds a [StrictTransport] over base, which defaults to
// [http.DefaultTransport] when nil.
func NewStrictTransport(c *gosession.Controller, base http.RoundTripper) *StrictTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &StrictTransport{base: base, controller: c}
}

// RoundTrip implements [http.RoundTripper].
func (t *StrictTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	authed, err := attach(t.controller, req)
	if err != nil {
		return nil, err
	}
	return t.base.RoundTrip(authed)
}

// attach clones req and sets the Authorization header, plus the correlation
// header when the context carries a request ID.
func attach(c *gosession.Controller, req *http.Request) (*http.Request, error) {
	header, err := c.AuthorizationHeader(req.Context())
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", header)
	if requestID, ok := gosession.RequestIDFromContext(req.Context()); ok {
		out.Header.Set(requestIDHeader, requestID)
	}

	return out, nil
}

// replayRequest rebuilds the request with a fresh body and the
// post-refresh Authorization header.
func replayRequest(c *gosession.Controller, req *http.Request) (*http.Request, error) {
	out, err := attach(c, req)
	if err != nil {
		return nil, err
	}

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	return out, nil
}

// drain consumes what is left of a response body so the underlying
// connection can be reused for the replay.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
