package gosession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// Init describes the init operation and its observable behavior.
//
// Init runs the provider handshake: with a stored refresh token it attempts
// a silent resume, without one it settles into the unauthenticated state.
// The returned bool reports whether a session was resumed. Init is
// idempotent; a second call logs a warning and returns the current
// authentication status without another handshake. A failed Init rewinds to
// the uninitialized state so the caller can retry.
//
// Init may return an error when input validation, dependency calls, or security checks fail.
// Init does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/controller.md
func (c *Controller) Init(ctx context.Context) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}

	c.mu.Lock()
	switch c.state {
	case StateUninitialized:
	case StateInitializing:
		c.mu.Unlock()
		return false, ErrAlreadyInitialized
	default:
		authed := c.session != nil
		c.mu.Unlock()
		log.Print("goSession: Init called on an initialized controller, returning current status")
		return authed, nil
	}
	c.state = StateInitializing
	c.mu.Unlock()

	authed, err := c.initHandshake(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateUninitialized
		c.mu.Unlock()
		return false, err
	}
	return authed, nil
}

func (c *Controller) initHandshake(ctx context.Context) (bool, error) {
	stored := c.manager.RefreshToken(ctx)
	hs, err := c.provider.Handshake(ctx, stored)
	if err != nil {
		cerr := c.classifyErr(err)
		c.metricInc(MetricHandshakeFailure)
		c.emitAudit(ctx, auditEventHandshakeFailure, false, "", cerr, nil)
		c.bus.emit(EventError, cerr)
		return false, errors.Join(ErrHandshakeFailed, cerr)
	}

	if !hs.Authenticated {
		if stored != "" {
			// The stored refresh token is dead; drop the leftovers.
			c.manager.ClearTokens(ctx)
		}
		c.mu.Lock()
		c.state = StateUnauthenticated
		c.mu.Unlock()

		c.metricInc(MetricHandshakeSuccess)
		c.emitAudit(ctx, auditEventHandshakeAnonymous, true, "", nil, nil)
		c.bus.emit(EventInitialized, false)
		return false, nil
	}

	c.manager.StoreTokens(ctx, *hs.Record)
	sess, err := c.establishSession(ctx)
	if err != nil {
		c.manager.ClearTokens(ctx)
		c.metricInc(MetricHandshakeFailure)
		c.emitAudit(ctx, auditEventHandshakeFailure, false, "", err, nil)
		return false, err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.session = sess
	c.mu.Unlock()

	c.manager.ScheduleRefresh(ctx)
	c.metricInc(MetricHandshakeSuccess)
	c.emitAudit(ctx, auditEventHandshakeResumed, true, sess.Profile.ID, nil, nil)
	c.bus.emit(EventAuthenticated, copySession(sess))
	c.bus.emit(EventInitialized, true)
	return true, nil
}

// establishSession builds the session model for the tokens the manager now
// holds: grants from token claims, identity from the profile endpoint with
// token claims as the fallback source.
func (c *Controller) establishSession(ctx context.Context) (*UserSession, error) {
	claims, err := c.decoder.DecodeUnverified(c.manager.AccessToken(ctx))
	if err != nil {
		// An opaque access token still authenticates; it just derives no
		// claims, which the default-deny path below makes visible.
		log.Print("goSession: access token claim decode failed: ", err)
		claims = nil
	}

	grants := c.registry.Derive(c.decoder.CombinedRoles(claims))
	if len(grants) == 0 {
		c.metricInc(MetricEmptyRoleSet)
		c.emitAudit(ctx, auditEventEmptyRoleSet, false, claimsSubject(claims), ErrEmptyRoleSet, nil)
		log.Print("goSession: token carries no role grants, session holds no permissions")
	}

	prof, stores, ok := c.fetchProfile(ctx)
	if !ok {
		prof = profileFromClaims(claims)
		stores = []StoreGrant{}
	}
	mergeClaimIdentity(&prof, claims)
	if prof.ID == "" && prof.Username == "" {
		return nil, fmt.Errorf("%w: no identity in token claims or profile response", ErrProfileUnavailable)
	}

	return &UserSession{
		Profile:     prof,
		Roles:       grants,
		StoreAccess: stores,
	}, nil
}

// fetchProfile loads the backend profile. All failure modes degrade to the
// claims fallback; a missing profile endpoint is a configuration choice and
// degrades silently.
func (c *Controller) fetchProfile(ctx context.Context) (Profile, []StoreGrant, bool) {
	header, ok := c.manager.AuthorizationHeader(ctx)
	if !ok {
		return Profile{}, nil, false
	}

	body, err := c.provider.Profile(ctx, header)
	if err != nil {
		if errors.Is(err, provider.ErrNoProfileEndpoint) {
			return Profile{}, nil, false
		}
		c.metricInc(MetricProfileFailure)
		c.emitAudit(ctx, auditEventProfileFallback, false, "", c.classifyErr(err), nil)
		log.Print("goSession: profile fetch failed, using token claims: ", err)
		return Profile{}, nil, false
	}

	payload, err := decodeProfilePayload(body)
	if err != nil {
		c.metricInc(MetricProfileFailure)
		c.emitAudit(ctx, auditEventProfileFallback, false, "", err, nil)
		log.Print("goSession: profile response malformed, using token claims: ", err)
		return Profile{}, nil, false
	}

	c.metricInc(MetricProfileSuccess)
	return payload.profile(), payload.storeGrants(), true
}

// refreshFunc is the provider operation installed on the token manager. It
// classifies failures so every flight waiter observes the classified error,
// and keeps the dead-grant marker reachable for the session-ending decision.
func (c *Controller) refreshFunc(ctx context.Context) (*token.Record, error) {
	stored := c.manager.RefreshToken(ctx)
	if stored == "" {
		return nil, ErrNoRefreshToken
	}

	rec, err := c.provider.Refresh(ctx, stored)
	if err != nil {
		cerr := c.classifyErr(err)
		if errors.Is(err, provider.ErrSessionExpired) {
			return nil, errors.Join(provider.ErrSessionExpired, cerr)
		}
		return nil, cerr
	}
	return rec, nil
}

// onRefreshStarted marks the session as refreshing. Fired once per flight,
// not per waiter.
func (c *Controller) onRefreshStarted() {
	c.mu.Lock()
	if c.state == StateAuthenticated {
		c.state = StateRefreshing
	}
	c.mu.Unlock()
}

// onRefreshStored fires after a refresh flight stored its tokens and
// re-armed the schedule. Listeners observing the event already see the new
// token through every manager read.
func (c *Controller) onRefreshStored(rec token.Record) {
	ctx := context.Background()

	c.mu.Lock()
	if c.state == StateRefreshing {
		c.state = StateAuthenticated
	}
	userID := sessionUserID(c.session)
	c.mu.Unlock()

	c.emitAudit(ctx, auditEventRefreshSuccess, true, userID, nil, func() map[string]string {
		return map[string]string{
			"expires_in": strconv.FormatInt(rec.ExpiresIn, 10),
		}
	})
	c.bus.emit(EventTokenRefreshed, c.manager.ExpiresAt(ctx))
}

// onRefreshFailed ends the session: the manager has already cleared the
// tokens and stopped the schedule, this is the one place that decides a
// broken refresh means logged out.
func (c *Controller) onRefreshFailed(err error) {
	ctx := context.Background()

	c.mu.Lock()
	if c.state != StateAuthenticated && c.state != StateRefreshing {
		// Torn down concurrently; nothing left to end.
		c.mu.Unlock()
		return
	}
	userID := sessionUserID(c.session)
	c.state = StateUnauthenticated
	c.session = nil
	c.mu.Unlock()

	c.emitAudit(ctx, auditEventRefreshFailure, false, userID, err, nil)
	c.bus.emit(EventTokenExpired, nil)
	c.bus.emit(EventError, err)
	c.bus.emit(EventUnauthenticated, err)
}

// bindProviderCallbacks attaches the controller to the provider's signal
// surface. Login, handshake, refresh, and logout results reach the
// controller as return values of the calls it makes; the dead-grant signal
// is the one fact worth observing out of band, for the audit trail.
func (c *Controller) bindProviderCallbacks() {
	c.provider.SetCallbacks(provider.Callbacks{
		OnTokenExpired: func(ctx context.Context) {
			c.metricInc(MetricTokenExpiredSignal)
			c.emitAudit(ctx, auditEventTokenExpired, false, c.currentUserID(), provider.ErrSessionExpired, nil)
		},
	})
}
