//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"

	gosession "github.com/MrEthical07/goSession"
)

// Sixteen callers hitting an invalid token at once must produce exactly one
// provider refresh: the flight winner performs it, everyone else joins and
// waits for the shared result.
func TestRefreshRaceSingleFlight(t *testing.T) {
	ctx := context.Background()
	_, rdb, cleanup := newSessionBackend(t)
	defer cleanup()

	p := newIntegrationProvider()
	p.loginExpiresIn = 1 // inside the expiry buffer: invalid the moment it lands

	c := newRedisController(t, rdb, p)
	if _, err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := c.Login(ctx, gosession.Credentials{Username: "jdoe", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	tokens := make(chan string, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			tok, err := c.AccessToken(ctx)
			if err != nil {
				t.Errorf("AccessToken failed: %v", err)
				return
			}
			tokens <- tok
		}()
	}

	close(start)
	wg.Wait()
	close(tokens)

	if got := p.refreshCount(); got != 1 {
		t.Fatalf("provider saw %d refresh calls, want exactly 1", got)
	}

	want := ""
	for tok := range tokens {
		if want == "" {
			want = tok
		}
		if tok != want {
			t.Fatal("workers received different tokens from one flight")
		}
	}
	if want == "" {
		t.Fatal("no worker received a token")
	}

	snap := c.MetricsSnapshot()
	if snap.Counters[gosession.MetricRefreshSuccess] != 1 {
		t.Fatalf("refresh success counter = %d, want 1", snap.Counters[gosession.MetricRefreshSuccess])
	}
}
