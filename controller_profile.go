package gosession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/provider"
)

// profilePayload is the backend profile wire shape, arriving raw or inside
// a {"data": ...} envelope.
type profilePayload struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	EmailVerified bool           `json:"emailVerified"`
	Roles         []string       `json:"roles"`
	StoreAccess   []storePayload `json:"storeAccess"`
}

type storePayload struct {
	StoreID string   `json:"storeId"`
	Roles   []string `json:"roles"`
}

// decodeProfilePayload unwraps the optional data envelope and decodes the
// profile object.
func decodeProfilePayload(body []byte) (*profilePayload, error) {
	raw := body
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		raw = envelope.Data
	}

	payload := &profilePayload{}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileMalformed, err)
	}
	return payload, nil
}

// profile normalizes the wire shape: userId wins over id, absent fields
// stay zero.
func (p *profilePayload) profile() Profile {
	id := p.UserID
	if id == "" {
		id = p.ID
	}
	return Profile{
		ID:            id,
		Username:      p.Username,
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		EmailVerified: p.EmailVerified,
	}
}

// storeGrants normalizes store access: absent lists become empty, entries
// without a store identifier are dropped.
func (p *profilePayload) storeGrants() []StoreGrant {
	out := []StoreGrant{}
	for _, sp := range p.StoreAccess {
		if sp.StoreID == "" {
			continue
		}
		sg := StoreGrant{StoreID: sp.StoreID}
		if len(sp.Roles) > 0 {
			sg.Roles = make([]string, len(sp.Roles))
			copy(sg.Roles, sp.Roles)
		}
		out = append(out, sg)
	}
	return out
}

func profileFromClaims(c *jwt.Claims) Profile {
	if c == nil {
		return Profile{}
	}
	return Profile{
		ID:            claimsSubject(c),
		Username:      c.PreferredUsername,
		Email:         c.Email,
		FirstName:     c.GivenName,
		LastName:      c.FamilyName,
		EmailVerified: c.EmailVerified,
	}
}

// mergeClaimIdentity fills identity fields the profile endpoint did not
// provide from the token claims.
func mergeClaimIdentity(p *Profile, c *jwt.Claims) {
	if c == nil {
		return
	}
	if p.ID == "" {
		p.ID = claimsSubject(c)
	}
	if p.Username == "" {
		p.Username = c.PreferredUsername
	}
	if p.Email == "" {
		p.Email = c.Email
	}
}

func claimsSubject(c *jwt.Claims) string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// UserProfile describes the userprofile operation and its observable behavior.
//
// UserProfile fetches the backend profile fresh, requiring a valid or
// refreshable token; without one the call fails with [ErrLoginRequired].
// The response is normalized into a [UserSession] view: userId becomes the
// profile ID, flat role strings become scoped grants, absent storeAccess
// becomes an empty list. The controller's own session state is not touched;
// grant queries keep answering from the token-claim-derived session.
//
// UserProfile may return an error when input validation, dependency calls, or security checks fail.
// UserProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/controller.md
func (c *Controller) UserProfile(ctx context.Context) (*UserSession, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	header, err := c.AuthorizationHeader(ctx)
	if err != nil {
		if errors.Is(err, ErrLoginRequired) || errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, errors.Join(ErrLoginRequired, err)
	}

	body, err := c.provider.Profile(ctx, header)
	if err != nil {
		c.metricInc(MetricProfileFailure)
		if errors.Is(err, provider.ErrNoProfileEndpoint) {
			return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
		}
		return nil, errors.Join(ErrProfileUnavailable, c.classifyErr(err))
	}

	payload, err := decodeProfilePayload(body)
	if err != nil {
		c.metricInc(MetricProfileFailure)
		return nil, err
	}

	c.metricInc(MetricProfileSuccess)
	return &UserSession{
		Profile:     payload.profile(),
		Roles:       c.registry.Derive(payload.Roles),
		StoreAccess: payload.storeGrants(),
	}, nil
}

// checker snapshots the current grants for queries. Session grant slices
// are immutable once established, so handing them to the checker without a
// copy is safe.
func (c *Controller) checker() *permission.Checker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return permission.NewChecker(nil, nil)
	}
	return permission.NewChecker(c.session.Roles, c.session.StoreAccess)
}

// HasRole describes the hasrole operation and its observable behavior.
//
// Answers from the token-claim-derived grant list of the active session;
// false whenever unauthenticated.
//
// HasRole may return an error when input validation, dependency calls, or security checks fail.
// HasRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) HasRole(role string) bool {
	return c.checker().HasRole(role)
}

// HasAnyRole describes the hasanyrole operation and its observable behavior.
//
// HasAnyRole may return an error when input validation, dependency calls, or security checks fail.
// HasAnyRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) HasAnyRole(roles ...string) bool {
	return c.checker().HasAnyRole(roles...)
}

// IsPlatformAdmin describes the isplatformadmin operation and its observable behavior.
//
// IsPlatformAdmin may return an error when input validation, dependency calls, or security checks fail.
// IsPlatformAdmin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) IsPlatformAdmin() bool {
	return c.checker().IsPlatformAdmin()
}

// HasStoreRole describes the hasstorerole operation and its observable behavior.
//
// Only store grants count; a platform-wide role of the same name does not
// satisfy a store-scoped query. See [permission.Checker.HasStoreRole].
//
// HasStoreRole may return an error when input validation, dependency calls, or security checks fail.
// HasStoreRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) HasStoreRole(storeID, role string) bool {
	return c.checker().HasStoreRole(storeID, role)
}

// CanAccessStore describes the canaccessstore operation and its observable behavior.
//
// Platform admins may access every store; everyone else needs a store
// grant. See [permission.Checker.CanAccessStore].
//
// CanAccessStore may return an error when input validation, dependency calls, or security checks fail.
// CanAccessStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Controller) CanAccessStore(storeID string) bool {
	return c.checker().CanAccessStore(storeID)
}
