package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	gosession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// mintToken assembles an unsigned header.payload.signature token carrying
// the given realm roles, so the controller's claim decode sees real grants.
func mintToken(t *testing.T, serial int, roles []string) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payload, err := json.Marshal(map[string]any{
		"sub":                "u1",
		"preferred_username": "jdoe",
		"jti":                fmt.Sprintf("t-%d", serial),
		"realm_access":       map[string]any{"roles": roles},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("unsigned"))
}

// fakeProvider scripts the identity provider. Every refresh hands out a new
// token pair so tests can observe which generation a request carried.
type fakeProvider struct {
	mintFn      func(serial int) string
	profileJSON []byte

	mu        sync.Mutex
	serial    int
	refreshes int
	loginErr  error
	refresErr error
}

func newFakeProvider(t *testing.T, roles ...string) *fakeProvider {
	t.Helper()
	f := &fakeProvider{}
	f.mintFn = func(serial int) string { return mintToken(t, serial, roles) }
	return f
}

func (f *fakeProvider) record() *token.Record {
	f.serial++
	return &token.Record{
		AccessToken:  f.mintFn(f.serial),
		RefreshToken: fmt.Sprintf("refresh-%d", f.serial),
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func (f *fakeProvider) Handshake(ctx context.Context, refreshToken string) (provider.HandshakeResult, error) {
	return provider.HandshakeResult{}, nil
}

func (f *fakeProvider) Login(ctx context.Context, username, password string) (*token.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.record(), nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*token.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refresErr != nil {
		return nil, f.refresErr
	}
	f.refreshes++
	return f.record(), nil
}

func (f *fakeProvider) Logout(ctx context.Context, refreshToken string) error {
	return nil
}

func (f *fakeProvider) Profile(ctx context.Context, authorization string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileJSON == nil {
		return nil, provider.ErrNoProfileEndpoint
	}
	return f.profileJSON, nil
}

func (f *fakeProvider) SetCallbacks(cb provider.Callbacks) {}

func (f *fakeProvider) RefreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func newController(t *testing.T, f *fakeProvider) *gosession.Controller {
	t.Helper()

	c, err := gosession.New().WithProvider(f).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("build controller: %v", err)
	}
	t.Cleanup(c.Close)

	if _, err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

// newControllerWithTransport builds a controller whose transport section is
// fully caller-controlled; everything else stays at workable test values.
func newControllerWithTransport(t *testing.T, f *fakeProvider, tc gosession.TransportConfig) *gosession.Controller {
	t.Helper()

	cfg := gosession.Config{
		Tokens: gosession.TokensConfig{
			ExpiryBuffer:   30 * time.Second,
			RefreshTimeout: 5 * time.Second,
		},
		Storage: gosession.StorageConfig{DurableTier: gosession.DurableMemory},
		Claims: gosession.ClaimsConfig{
			DefaultResource: "admin-console",
			MaxTokenBytes:   64 * 1024,
		},
		Transport: tc,
		Classifier: gosession.ClassifierConfig{
			BaseRetryDelay: time.Second,
			MaxRetryDelay:  30 * time.Second,
		},
		Metrics: gosession.MetricsConfig{Enabled: true},
	}

	c, err := gosession.New().WithConfig(cfg).WithProvider(f).Build()
	if err != nil {
		t.Fatalf("build controller: %v", err)
	}
	t.Cleanup(c.Close)

	if _, err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

func login(t *testing.T, c *gosession.Controller) {
	t.Helper()
	if _, err := c.Login(context.Background(), gosession.Credentials{Username: "jdoe", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}
