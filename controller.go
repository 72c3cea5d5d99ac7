package gosession

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// Controller defines a public type used by goSession APIs.
//
// Controller is the session core: it drives the provider handshake, owns the
// token lifecycle manager and the event bus, derives role and store grants
// from token claims and a profile fetch, and publishes every session
// transition. One Controller represents one session instance.
//
// Controller instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
//	Docs: docs/controller.md
type Controller struct {
	config     Config
	provider   ProviderClient
	manager    *token.Manager
	bus        *EventBus
	classifier *Classifier
	decoder    *jwt.Decoder
	registry   *permission.Registry
	audit      *auditDispatcher
	metrics    *Metrics
	instanceID string

	mu      sync.RWMutex
	state   SessionState
	session *UserSession

	closed atomic.Bool
}

// State describes the state operation and its observable behavior.
//
// State may return an error when input validation, dependency calls, or security checks fail.
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// CurrentSession describes the currentsession operation and its observable behavior.
//
// Returns a deep copy of the active session, or nil when unauthenticated.
// Mutating the copy never affects the Controller's state.
//
// CurrentSession may return an error when input validation, dependency calls, or security checks fail.
// CurrentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) CurrentSession() *UserSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copySession(c.session)
}

// InstanceID describes the instanceid operation and its observable behavior.
//
// InstanceID may return an error when input validation, dependency calls, or security checks fail.
// InstanceID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) InstanceID() string {
	if c == nil {
		return ""
	}
	return c.instanceID
}

// On describes the on operation and its observable behavior.
//
// Registers fn on the session event bus; see [EventBus.On].
//
// On may return an error when input validation, dependency calls, or security checks fail.
// On does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) On(eventType EventType, fn Listener) func() {
	return c.bus.On(eventType, fn)
}

// Off describes the off operation and its observable behavior.
//
// Removes every listener for eventType; see [EventBus.Off].
//
// Off may return an error when input validation, dependency calls, or security checks fail.
// Off does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Off(eventType EventType) {
	c.bus.Off(eventType)
}

// Manager describes the manager operation and its observable behavior.
//
// Exposes the token lifecycle manager for transports that attach headers
// and force refreshes directly.
//
// Manager may return an error when input validation, dependency calls, or security checks fail.
// Manager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Manager() *token.Manager {
	return c.manager
}

// Classifier describes the classifier operation and its observable behavior.
//
// Exposes the failure classifier so transports and callers share one retry
// policy.
//
// Classifier may return an error when input validation, dependency calls, or security checks fail.
// Classifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Classifier() *Classifier {
	return c.classifier
}

// Metrics describes the metrics operation and its observable behavior.
//
// Exposes the live metrics instance; exporters and transports record
// through it directly. Nil-safe no-op when metrics are disabled.
//
// Metrics may return an error when input validation, dependency calls, or security checks fail.
// Metrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// TransportConfig describes the transportconfig operation and its observable behavior.
//
// TransportConfig may return an error when input validation, dependency calls, or security checks fail.
// TransportConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) TransportConfig() TransportConfig {
	return c.config.Transport
}

// AccessToken describes the accesstoken operation and its observable behavior.
//
// Returns a currently valid access token, refreshing first when the stored
// one is expired or missing. Callers without a session get
// [ErrLoginRequired] without a provider round trip.
//
// AccessToken may return an error when input validation, dependency calls, or security checks fail.
// AccessToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) AccessToken(ctx context.Context) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	if !c.IsAuthenticated() {
		return "", ErrLoginRequired
	}

	tok, err := c.manager.ValidAccessToken(ctx)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrLoginRequired
	}
	return tok, nil
}

// AuthorizationHeader describes the authorizationheader operation and its observable behavior.
//
// Returns "<type> <token>" with a valid access token, refreshing first when
// needed. Unlike [token.Manager.AuthorizationHeader] this never hands out an
// expired token.
//
// AuthorizationHeader may return an error when input validation, dependency calls, or security checks fail.
// AuthorizationHeader does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) AuthorizationHeader(ctx context.Context) (string, error) {
	tok, err := c.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	typ := c.manager.TokenType(ctx)
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + tok, nil
}

// RefreshNow describes the refreshnow operation and its observable behavior.
//
// Forces a refresh regardless of the stored expiry, joining a flight already
// in progress. The session transitions exactly as a scheduled refresh would.
//
// RefreshNow may return an error when input validation, dependency calls, or security checks fail.
// RefreshNow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) RefreshNow(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.IsAuthenticated() {
		return ErrLoginRequired
	}
	if _, err := c.manager.RefreshAccessToken(ctx); err != nil {
		return err
	}
	return nil
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.SnapshotNow()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Stops the proactive refresh schedule and drains the audit dispatcher.
// Stored tokens are left in place so the next process can resume the
// session; [Controller.Logout] is the call that destroys them.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.manager != nil {
		c.manager.Close()
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

func (c *Controller) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// classifyErr routes a failure through the classifier exactly once.
// Controller-level sentinels and already-classified errors pass through
// untouched; provider status carriers classify by their captured response.
func (c *Controller) classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoRefreshToken) ||
		errors.Is(err, ErrLoginRequired) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, token.ErrRefreshDiscarded) {
		return err
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return err
	}

	var se *provider.StatusError
	if errors.As(err, &se) {
		return c.classifier.Classify(&http.Response{
			StatusCode: se.StatusCode,
			Header:     se.Header,
		}, se.Body, nil)
	}

	return c.classifier.Classify(nil, nil, err)
}

func (c *Controller) currentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sessionUserID(c.session)
}

func sessionUserID(s *UserSession) string {
	if s == nil {
		return ""
	}
	return s.Profile.ID
}

func copySession(s *UserSession) *UserSession {
	if s == nil {
		return nil
	}
	out := &UserSession{
		Profile:     s.Profile,
		Roles:       []RoleGrant{},
		StoreAccess: []StoreGrant{},
	}
	if len(s.Roles) > 0 {
		out.Roles = make([]RoleGrant, len(s.Roles))
		copy(out.Roles, s.Roles)
	}
	for _, sg := range s.StoreAccess {
		cp := StoreGrant{StoreID: sg.StoreID}
		if len(sg.Roles) > 0 {
			cp.Roles = make([]string, len(sg.Roles))
			copy(cp.Roles, sg.Roles)
		}
		out.StoreAccess = append(out.StoreAccess, cp)
	}
	return out
}
