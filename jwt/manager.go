package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultMaxTokenBytes = 64 * 1024

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// DefaultResource names the OAuth client whose resource_access roles
	// count toward the session's grant list.
	DefaultResource string
	MaxTokenBytes   int
}

// Decoder extracts JWT payload claims WITHOUT verifying the signature.
//
// Decoded values are a display/UX convenience only — never an authorization
// input. Every access decision derived from these claims is re-validated
// server-side; the backend rejects tampered tokens regardless of what this
// decoder reports.
//
//	Docs: docs/claims.md
type Decoder struct {
	config Config
}

// RoleSet carries the role-name list of one realm or resource grant block.
type RoleSet struct {
	Roles []string `json:"roles"`
}

// Claims defines a public type used by goSession APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	PreferredUsername string             `json:"preferred_username,omitempty"`
	Email             string             `json:"email,omitempty"`
	GivenName         string             `json:"given_name,omitempty"`
	FamilyName        string             `json:"family_name,omitempty"`
	EmailVerified     bool               `json:"email_verified,omitempty"`
	RealmAccess       RoleSet            `json:"realm_access,omitempty"`
	ResourceAccess    map[string]RoleSet `json:"resource_access,omitempty"`
	jwt.RegisteredClaims
}

// NewDecoder describes the newdecoder operation and its observable behavior.
//
// NewDecoder may return an error when input validation fails.
// NewDecoder does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewDecoder(cfg Config) (*Decoder, error) {
	if cfg.MaxTokenBytes == 0 {
		cfg.MaxTokenBytes = defaultMaxTokenBytes
	}
	if cfg.MaxTokenBytes < 0 {
		return nil, errors.New("invalid MaxTokenBytes configuration")
	}
	cfg.DefaultResource = strings.TrimSpace(cfg.DefaultResource)

	return &Decoder{config: cfg}, nil
}

// DecodeUnverified parses the payload segment of tokenStr into [Claims]
// without checking the signature. Malformed tokens return an error; a
// well-formed token with unexpected claim shapes decodes to zero values.
//
// The result must never gate access on its own. Expiry in particular is
// advisory: the session expiry of record comes from the server-declared
// expires_in at storage time, not from the decoded exp claim.
//
//	Docs: docs/claims.md
func (d *Decoder) DecodeUnverified(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	if len(tokenStr) > d.config.MaxTokenBytes {
		return nil, errors.New("token exceeds size limit")
	}

	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// RealmRoles returns the realm-level role names, never nil.
func (c *Claims) RealmRoles() []string {
	if c == nil || len(c.RealmAccess.Roles) == 0 {
		return []string{}
	}
	out := make([]string, len(c.RealmAccess.Roles))
	copy(out, c.RealmAccess.Roles)
	return out
}

// ResourceRoles returns the role names granted under the named resource
// client, never nil.
func (c *Claims) ResourceRoles(resource string) []string {
	if c == nil || resource == "" {
		return []string{}
	}
	set, ok := c.ResourceAccess[resource]
	if !ok || len(set.Roles) == 0 {
		return []string{}
	}
	out := make([]string, len(set.Roles))
	copy(out, set.Roles)
	return out
}

// CombinedRoles merges realm roles with the decoder's default-resource
// roles, deduplicated, preserving first-seen order.
func (d *Decoder) CombinedRoles(c *Claims) []string {
	if c == nil {
		return []string{}
	}

	seen := make(map[string]struct{}, len(c.RealmAccess.Roles))
	out := make([]string, 0, len(c.RealmAccess.Roles))

	for _, role := range c.RealmRoles() {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	for _, role := range c.ResourceRoles(d.config.DefaultResource) {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}

	return out
}

// Expiry returns the advisory exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
