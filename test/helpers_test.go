//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	gosession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// newSessionBackend starts a miniredis instance with a client pointed at it.
func newSessionBackend(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return mr, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// newRedisController builds a controller whose durable tier is the given
// Redis client, metrics enabled so tests can assert counters.
func newRedisController(t *testing.T, rdb redis.UniversalClient, p gosession.ProviderClient) *gosession.Controller {
	t.Helper()

	cfg := gosession.DefaultConfig()
	cfg.Storage.DurableTier = gosession.DurableRedis
	cfg.Metrics.Enabled = true

	c, err := gosession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithProvider(p).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// integrationProvider is an in-memory gosession.ProviderClient. Every grant
// it mints carries serial-numbered tokens ("refresh-1", "refresh-2", ...) so
// tests can tell which call produced the token a controller holds.
type integrationProvider struct {
	mu         sync.Mutex
	serial     int
	handshakes int
	logins     int
	refreshes  int
	logouts    int

	// Lifetimes of minted grants, in seconds. A login lifetime shorter
	// than the expiry buffer makes the stored token immediately invalid,
	// which forces the on-demand refresh path.
	loginExpiresIn   int64
	refreshExpiresIn int64

	refreshErr error

	lastHandshakeToken string
	lastLogoutToken    string
}

func newIntegrationProvider() *integrationProvider {
	return &integrationProvider{
		loginExpiresIn:   3600,
		refreshExpiresIn: 3600,
	}
}

func (p *integrationProvider) mint(expiresIn int64) *token.Record {
	p.serial++
	return &token.Record{
		AccessToken:  unsignedToken(p.serial),
		RefreshToken: fmt.Sprintf("refresh-%d", p.serial),
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}
}

func (p *integrationProvider) Handshake(ctx context.Context, refreshToken string) (provider.HandshakeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if refreshToken == "" {
		return provider.HandshakeResult{}, nil
	}
	p.handshakes++
	p.lastHandshakeToken = refreshToken
	return provider.HandshakeResult{Authenticated: true, Record: p.mint(p.refreshExpiresIn)}, nil
}

func (p *integrationProvider) Login(ctx context.Context, username, password string) (*token.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins++
	return p.mint(p.loginExpiresIn), nil
}

func (p *integrationProvider) Refresh(ctx context.Context, refreshToken string) (*token.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.mint(p.refreshExpiresIn), nil
}

func (p *integrationProvider) Logout(ctx context.Context, refreshToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts++
	p.lastLogoutToken = refreshToken
	return nil
}

func (p *integrationProvider) Profile(ctx context.Context, authorization string) ([]byte, error) {
	return nil, provider.ErrNoProfileEndpoint
}

func (p *integrationProvider) SetCallbacks(cb provider.Callbacks) {}

func (p *integrationProvider) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// unsignedToken builds a structurally valid JWT with an empty signature
// segment. The claim decoder never verifies signatures, so this is all a
// fake provider needs to mint.
func unsignedToken(serial int) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{
		"sub":                "u1",
		"preferred_username": "jdoe",
		"email":              "jdoe@example.com",
		"jti":                fmt.Sprintf("tok-%d", serial),
		"realm_access":       map[string][]string{"roles": {"store-admin"}},
	})
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}
