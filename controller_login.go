package gosession

import (
	"context"
	"errors"
	"log"
)

// Login describes the login operation and its observable behavior.
//
// Login runs the direct credential grant against the provider and, on
// success, replaces any existing session wholesale: tokens stored, session
// model rebuilt, proactive refresh re-armed. Rejected credentials return an
// error matching [ErrInvalidCredentials] with the classified provider
// failure joined in. The password transits to the provider and is never
// retained.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/controller.md
func (c *Controller) Login(ctx context.Context, creds Credentials) (*UserSession, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()
	if state == StateUninitialized || state == StateInitializing {
		return nil, ErrNotInitialized
	}

	if creds.Username == "" || creds.Password == "" {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": creds.Username,
				"reason":     "empty_credentials",
			}
		})
		return nil, ErrInvalidCredentials
	}

	rec, err := c.provider.Login(ctx, creds.Username, creds.Password)
	creds.Password = ""
	if err != nil {
		cerr := c.classifyErr(err)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", cerr, func() map[string]string {
			return map[string]string{
				"identifier": creds.Username,
				"reason":     "provider_rejected",
			}
		})
		if errors.Is(cerr, ErrAuthentication) || errors.Is(cerr, ErrValidation) {
			return nil, errors.Join(ErrInvalidCredentials, cerr)
		}
		return nil, cerr
	}

	c.manager.StoreTokens(ctx, *rec)
	sess, err := c.establishSession(ctx)
	if err != nil {
		c.manager.ClearTokens(ctx)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": creds.Username,
				"reason":     "session_establish",
			}
		})
		return nil, err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.session = sess
	c.mu.Unlock()

	c.manager.ScheduleRefresh(ctx)
	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, sess.Profile.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": creds.Username,
		}
	})
	c.bus.emit(EventAuthenticated, copySession(sess))
	return copySession(sess), nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the local session first: tokens destroyed, schedule
// cancelled, state dropped, events published. Only then is the provider
// told, best effort; a failed remote call returns an error matching
// [ErrLogoutRemote] while the local logout has already fully happened.
// Logging out while unauthenticated is a no-op.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/controller.md
func (c *Controller) Logout(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	if c.state == StateUninitialized || c.state == StateInitializing {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	userID := sessionUserID(c.session)
	c.state = StateUnauthenticated
	c.session = nil
	c.mu.Unlock()

	// Snapshot before the clear wipes the durable tier. Clearing also
	// discards any refresh still in flight.
	stored := c.manager.RefreshToken(ctx)
	c.manager.ClearTokens(ctx)

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	c.bus.emit(EventLogout, nil)
	c.bus.emit(EventUnauthenticated, nil)

	if stored == "" {
		return nil
	}
	if err := c.provider.Logout(ctx, stored); err != nil {
		cerr := c.classifyErr(err)
		c.metricInc(MetricLogoutRemoteFailure)
		c.emitAudit(ctx, auditEventLogoutRemoteFailure, false, userID, cerr, nil)
		log.Print("goSession: remote logout failed, local session already cleared: ", cerr)
		return errors.Join(ErrLogoutRemote, cerr)
	}
	return nil
}
