package token

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/internal/metrics"
)

// Lifecycle defaults. ExpiryBuffer makes a token report expired slightly before
// the server-declared instant so a token that passes the check survives the
// request it authorizes. RefreshLead is how long before expiry the proactive
// refresh fires.
const (
	// DefaultExpiryBuffer is an exported constant or variable used by the session core.
	DefaultExpiryBuffer = 30 * time.Second

	// DefaultRefreshLead is an exported constant or variable used by the session core.
	DefaultRefreshLead = 5 * time.Minute

	// DefaultRefreshTimeout is an exported constant or variable used by the session core.
	DefaultRefreshTimeout = 30 * time.Second
)

// Record defines a public type used by goSession APIs.
//
// Record is the token grant as delivered by the identity provider. ExpiresIn is
// the server-declared lifetime in seconds; [Manager.StoreTokens] converts it to
// an absolute expiry at store time. An empty RefreshToken leaves any previously
// stored refresh token in place.
type Record struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// RefreshFunc defines a public type used by goSession APIs.
//
// RefreshFunc performs the provider refresh call and returns the new grant.
// The Manager invokes it from exactly one goroutine at a time.
type RefreshFunc func(ctx context.Context) (*Record, error)

// ManagerConfig defines a public type used by goSession APIs.
type ManagerConfig struct {
	// ExpiryBuffer is subtracted from the stored expiry at every validity
	// check. Zero means DefaultExpiryBuffer.
	ExpiryBuffer time.Duration

	// RefreshLead is how long before expiry the scheduled refresh fires.
	// Zero means DefaultRefreshLead.
	RefreshLead time.Duration

	// RefreshTimeout bounds a single refresh network call. Zero means
	// DefaultRefreshTimeout.
	RefreshTimeout time.Duration

	// OnRefreshStarted runs when a refresh flight begins. Joiners of an
	// existing flight do not trigger it.
	OnRefreshStarted func()

	// OnRefreshStored runs after a successful refresh result is stored and
	// the next proactive refresh is armed, before waiters are released.
	OnRefreshStored func(rec Record)

	// OnRefreshFailed runs after a failed refresh has cleared the stored
	// tokens, before waiters are released. Discarded flights do not
	// trigger it.
	OnRefreshFailed func(err error)
}

// flight is one in-progress refresh. Joiners block on done; token and err are
// written exactly once, before done is closed. gen pins the store generation
// the flight started from; a store cleared or replaced underneath the flight
// discards its result.
type flight struct {
	done  chan struct{}
	gen   uint64
	token string
	err   error
}

// Manager defines a public type used by goSession APIs.
//
// Manager owns the token quadruple and coordinates refreshes. Any number of
// concurrent [Manager.ValidAccessToken] callers that find the token expired
// produce at most one [RefreshFunc] invocation; late arrivals join the flight
// in progress and share its outcome. A refresh that fails clears all stored
// tokens so the session cannot limp along on a half-valid state.
//
// The refresh call runs on a detached context bounded by RefreshTimeout, so
// a single caller timing out cannot cancel work that other callers share.
//
// Docs: docs/lifecycle.md
type Manager struct {
	store   *TieredStore
	metrics *metrics.Metrics

	expiryBuffer   time.Duration
	refreshLead    time.Duration
	refreshTimeout time.Duration

	mu        sync.Mutex
	refreshFn RefreshFunc
	inflight  *flight
	gen       uint64

	schedMu   sync.Mutex
	schedStop chan struct{}

	onStarted func()
	onStored  func(rec Record)
	onFailed  func(err error)
}

// NewManager describes the newmanager operation and its observable behavior.
func NewManager(store *TieredStore, cfg ManagerConfig, m *metrics.Metrics) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	mgr := &Manager{
		store:          store,
		metrics:        m,
		expiryBuffer:   cfg.ExpiryBuffer,
		refreshLead:    cfg.RefreshLead,
		refreshTimeout: cfg.RefreshTimeout,
		onStarted:      cfg.OnRefreshStarted,
		onStored:       cfg.OnRefreshStored,
		onFailed:       cfg.OnRefreshFailed,
	}
	if mgr.expiryBuffer <= 0 {
		mgr.expiryBuffer = DefaultExpiryBuffer
	}
	if mgr.refreshLead <= 0 {
		mgr.refreshLead = DefaultRefreshLead
	}
	if mgr.refreshTimeout <= 0 {
		mgr.refreshTimeout = DefaultRefreshTimeout
	}
	return mgr, nil
}

// SetRefreshFunc describes the setrefreshfunc operation and its observable behavior.
//
// Until a RefreshFunc is set, [Manager.ValidAccessToken] resolves to "" for an
// expired token instead of failing. Replacing the func does not affect a
// refresh already in flight.
func (m *Manager) SetRefreshFunc(fn RefreshFunc) {
	m.mu.Lock()
	m.refreshFn = fn
	m.mu.Unlock()
}

// StoreTokens describes the storetokens operation and its observable behavior.
//
// The absolute expiry is computed here as now + ExpiresIn seconds; the expiry
// buffer is NOT baked in, it is applied at check time. Write order is token
// type, access token, refresh token, expiry, so a concurrent reader that sees
// the new expiry also sees the new tokens. An empty RefreshToken leaves the
// durable tier untouched.
//
// Storing a new grant invalidates any refresh still in flight; its result is
// discarded rather than overwriting the newer tokens.
func (m *Manager) StoreTokens(ctx context.Context, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeLocked(ctx, rec)
	m.gen++
}

func (m *Manager) storeLocked(ctx context.Context, rec Record) {
	expiresAt := time.Now().Add(time.Duration(rec.ExpiresIn) * time.Second)
	m.store.setItem(ctx, KeyTokenType, rec.TokenType)
	m.store.setItem(ctx, KeyAccessToken, rec.AccessToken)
	if rec.RefreshToken != "" {
		m.store.setItem(ctx, KeyRefreshToken, rec.RefreshToken)
	}
	m.store.setItem(ctx, KeyExpiresAt, strconv.FormatInt(expiresAt.UnixMilli(), 10))
}

// ClearTokens describes the cleartokens operation and its observable behavior.
//
// All four fields are removed from both tiers and any armed scheduled refresh
// is cancelled. A refresh still in flight when the clear happens has its
// result discarded, so a logout cannot be undone by a refresh that was
// already on the wire. Safe to call repeatedly.
func (m *Manager) ClearTokens(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	m.gen++
	m.mu.Unlock()
	m.StopSchedule()
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.store.removeItem(ctx, KeyAccessToken)
	m.store.removeItem(ctx, KeyRefreshToken)
	m.store.removeItem(ctx, KeyExpiresAt)
	m.store.removeItem(ctx, KeyTokenType)
	m.metrics.Inc(metrics.MetricTokensCleared)
}

// AccessToken describes the accesstoken operation and its observable behavior.
func (m *Manager) AccessToken(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.getItem(ctx, KeyAccessToken)
}

// RefreshToken describes the refreshtoken operation and its observable behavior.
func (m *Manager) RefreshToken(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.getItem(ctx, KeyRefreshToken)
}

// TokenType describes the tokentype operation and its observable behavior.
//
// Returns the stored value verbatim; [Manager.AuthorizationHeader] is the
// place that substitutes "Bearer" for an absent type.
func (m *Manager) TokenType(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.getItem(ctx, KeyTokenType)
}

// ExpiresAt describes the expiresat operation and its observable behavior.
//
// Returns the zero time when no expiry is stored or the stored value does not
// parse.
func (m *Manager) ExpiresAt(ctx context.Context) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAtLocked(ctx)
}

func (m *Manager) expiresAtLocked(ctx context.Context) time.Time {
	raw := m.store.getItem(ctx, KeyExpiresAt)
	if raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// HasAccessToken describes the hasaccesstoken operation and its observable behavior.
func (m *Manager) HasAccessToken(ctx context.Context) bool {
	return m.AccessToken(ctx) != ""
}

// TokenExpired describes the tokenexpired operation and its observable behavior.
//
// A token reports expired ExpiryBuffer before its stored instant. A missing or
// unparseable expiry reports expired, which routes the caller through refresh
// rather than letting an unverifiable token through.
func (m *Manager) TokenExpired(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredLocked(ctx)
}

func (m *Manager) expiredLocked(ctx context.Context) bool {
	at := m.expiresAtLocked(ctx)
	if at.IsZero() {
		return true
	}
	return !time.Now().Before(at.Add(-m.expiryBuffer))
}

// TokenValid describes the tokenvalid operation and its observable behavior.
func (m *Manager) TokenValid(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validLocked(ctx)
}

func (m *Manager) validLocked(ctx context.Context) bool {
	return m.store.getItem(ctx, KeyAccessToken) != "" && !m.expiredLocked(ctx)
}

// AuthorizationHeader describes the authorizationheader operation and its observable behavior.
//
// Returns "<type> <token>" and true when an access token is stored, "" and
// false otherwise. The header is built from stored state only; it does not
// trigger a refresh and does not check expiry.
func (m *Manager) AuthorizationHeader(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := m.store.getItem(ctx, KeyAccessToken)
	if tok == "" {
		return "", false
	}
	typ := m.store.getItem(ctx, KeyTokenType)
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + tok, true
}

// ValidAccessToken describes the validaccesstoken operation and its observable behavior.
//
// The hot path. Returns the stored access token when it is present and not
// within ExpiryBuffer of expiry. Otherwise it refreshes: the first caller
// starts the flight, every concurrent caller joins it, and all of them receive
// the same token or the same error. With no RefreshFunc configured the call
// resolves to "" with a nil error, mirroring an unauthenticated session rather
// than a fault.
//
// Performance: 2 store reads on the valid path, no locks held across I/O to
// the provider.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.validLocked(ctx) {
		tok := m.store.getItem(ctx, KeyAccessToken)
		m.mu.Unlock()
		return tok, nil
	}
	m.mu.Unlock()
	return m.refresh(ctx, false)
}

// RefreshAccessToken describes the refreshaccesstoken operation and its observable behavior.
//
// Forces a refresh regardless of the stored expiry, joining any flight already
// in progress instead of starting a second one. Used by the transport after an
// authorization rejection that the expiry check did not predict.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	return m.refresh(ctx, true)
}

// refresh joins the in-flight refresh if one exists, otherwise starts one.
// forced tags starts that bypassed the expiry check. The validity re-check
// under the lock catches a refresh that settled between the caller's check
// and this call.
func (m *Manager) refresh(ctx context.Context, forced bool) (string, error) {
	m.mu.Lock()
	if !forced && m.validLocked(ctx) {
		tok := m.store.getItem(ctx, KeyAccessToken)
		m.mu.Unlock()
		return tok, nil
	}
	if fl := m.inflight; fl != nil {
		m.mu.Unlock()
		m.metrics.Inc(metrics.MetricRefreshCoalesced)
		return m.wait(ctx, fl)
	}
	if m.refreshFn == nil {
		m.mu.Unlock()
		return "", nil
	}
	fl := &flight{done: make(chan struct{}), gen: m.gen}
	m.inflight = fl
	fn := m.refreshFn
	m.mu.Unlock()

	if forced {
		m.metrics.Inc(metrics.MetricRefreshForced)
	}
	if m.onStarted != nil {
		m.onStarted()
	}
	m.runRefresh(ctx, fn, fl)
	return m.wait(ctx, fl)
}

// wait blocks until fl settles or ctx is done. Abandoning the wait does not
// cancel the flight.
func (m *Manager) wait(ctx context.Context, fl *flight) (string, error) {
	select {
	case <-fl.done:
		return fl.token, fl.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh executes fn and settles fl. The network call runs on a detached
// timeout context; the caller's ctx only governs how long the caller waits.
// State is reset and the lifecycle hooks run before done is closed, so a
// waiter that immediately retries observes the settled store, not the stale
// flight.
func (m *Manager) runRefresh(ctx context.Context, fn RefreshFunc, fl *flight) {
	start := time.Now()
	rctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	rec, err := invokeRefresh(rctx, fn)
	cancel()

	m.mu.Lock()
	if m.gen != fl.gen {
		// The store was cleared or replaced while this flight was on the
		// wire. Its result no longer describes the current session.
		m.inflight = nil
		m.mu.Unlock()
		log.Print("goSession: refresh result discarded, token store changed mid-flight")
		fl.err = ErrRefreshDiscarded
		close(fl.done)
		return
	}
	if err != nil {
		m.clearLocked(ctx)
		m.metrics.Inc(metrics.MetricRefreshFailure)
		fl.err = err
	} else {
		m.storeLocked(ctx, *rec)
		m.metrics.Inc(metrics.MetricRefreshSuccess)
		m.metrics.Observe(metrics.MetricRefreshLatency, time.Since(start))
		fl.token = rec.AccessToken
	}
	m.inflight = nil
	m.mu.Unlock()

	if err != nil {
		m.StopSchedule()
		if m.onFailed != nil {
			m.onFailed(err)
		}
	} else {
		m.ScheduleRefresh(context.Background())
		if m.onStored != nil {
			m.onStored(*rec)
		}
	}
	close(fl.done)
}

// invokeRefresh calls fn, converting a panic into a plain refresh failure.
// A panicking callback must not leave every future caller blocked on a flight
// that will never settle.
func invokeRefresh(ctx context.Context, fn RefreshFunc) (rec *Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("refresh callback panic: %v", r)
		}
	}()
	rec, err = fn(ctx)
	if err == nil && rec == nil {
		err = fmt.Errorf("refresh callback returned no record")
	}
	return rec, err
}
