//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"

	gosession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/provider"
)

// A refresh token written by one controller must be readable by the next:
// the durable tier is what turns a page reload into a resumed session
// instead of a fresh login.
func TestStoreConsistencyRefreshTokenSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mr, rdb, cleanup := newSessionBackend(t)
	defer cleanup()

	p := newIntegrationProvider()

	first := newRedisController(t, rdb, p)
	if _, err := first.Init(ctx); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	if _, err := first.Login(ctx, gosession.Credentials{Username: "jdoe", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Only the refresh token reaches Redis; the volatile fields live and
	// die with the controller instance.
	got, err := mr.Get("gosession:refresh_token")
	if err != nil {
		t.Fatalf("refresh token not persisted: %v", err)
	}
	if got != "refresh-1" {
		t.Fatalf("persisted refresh token = %q, want refresh-1", got)
	}
	for _, key := range []string{"gosession:access_token", "gosession:expires_at", "gosession:token_type"} {
		if mr.Exists(key) {
			t.Fatalf("%s leaked into the durable tier", key)
		}
	}

	first.Close()

	// A new controller on the same backend resumes without credentials.
	second := newRedisController(t, rdb, p)
	resumed, err := second.Init(ctx)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if !resumed {
		t.Fatal("expected the stored refresh token to resume the session")
	}
	if !second.IsAuthenticated() {
		t.Fatal("expected authenticated state after resume")
	}
	if p.lastHandshakeToken != "refresh-1" {
		t.Fatalf("handshake used token %q, want refresh-1", p.lastHandshakeToken)
	}

	// The handshake rotated the grant; the durable tier must hold the
	// rotated token, not the consumed one.
	got, err = mr.Get("gosession:refresh_token")
	if err != nil {
		t.Fatalf("rotated refresh token not persisted: %v", err)
	}
	if got != "refresh-2" {
		t.Fatalf("persisted refresh token after resume = %q, want refresh-2", got)
	}
}

// Logout must revoke durably: after it, a fresh controller on the same
// backend starts anonymous.
func TestStoreConsistencyLogoutRevokesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mr, rdb, cleanup := newSessionBackend(t)
	defer cleanup()

	p := newIntegrationProvider()

	first := newRedisController(t, rdb, p)
	if _, err := first.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := first.Login(ctx, gosession.Credentials{Username: "jdoe", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := first.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if mr.Exists("gosession:refresh_token") {
		t.Fatal("logout left the refresh token in the durable tier")
	}
	first.Close()

	second := newRedisController(t, rdb, p)
	resumed, err := second.Init(ctx)
	if err != nil {
		t.Fatalf("Init after logout failed: %v", err)
	}
	if resumed {
		t.Fatal("expected no session to resume after a durable logout")
	}
	if second.State() != gosession.StateUnauthenticated {
		t.Fatalf("state = %v, want %v", second.State(), gosession.StateUnauthenticated)
	}
}

// A refresh failure clears the durable tier so a dead grant is not retried
// on the next boot.
func TestStoreConsistencyFailedRefreshClearsDurableTier(t *testing.T) {
	ctx := context.Background()
	mr, rdb, cleanup := newSessionBackend(t)
	defer cleanup()

	p := newIntegrationProvider()
	p.loginExpiresIn = 1 // expires inside the buffer, forcing refresh on next use

	c := newRedisController(t, rdb, p)
	if _, err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := c.Login(ctx, gosession.Credentials{Username: "jdoe", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	p.mu.Lock()
	p.refreshErr = errors.Join(provider.ErrSessionExpired, &provider.StatusError{
		StatusCode: 400,
		Body:       []byte(`{"error":"invalid_grant"}`),
	})
	p.mu.Unlock()

	if _, err := c.AccessToken(ctx); err == nil {
		t.Fatal("expected the refresh to fail")
	}
	if mr.Exists("gosession:refresh_token") {
		t.Fatal("failed refresh left the dead token in the durable tier")
	}
	if c.State() != gosession.StateUnauthenticated {
		t.Fatalf("state = %v, want %v", c.State(), gosession.StateUnauthenticated)
	}
}
