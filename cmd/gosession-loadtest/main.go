package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	gosession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// stubProvider answers grants in-process with injectable latency, so the
// phases measure the session core rather than a network stack.
type stubProvider struct {
	latency   time.Duration
	serial    atomic.Int64
	refreshes atomic.Int64
}

func (s *stubProvider) mint() *token.Record {
	n := s.serial.Add(1)
	return &token.Record{
		AccessToken:  unsignedToken(n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func (s *stubProvider) Handshake(ctx context.Context, refreshToken string) (provider.HandshakeResult, error) {
	return provider.HandshakeResult{}, nil
}

func (s *stubProvider) Login(ctx context.Context, username, password string) (*token.Record, error) {
	return s.mint(), nil
}

func (s *stubProvider) Refresh(ctx context.Context, refreshToken string) (*token.Record, error) {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	s.refreshes.Add(1)
	return s.mint(), nil
}

func (s *stubProvider) Logout(ctx context.Context, refreshToken string) error { return nil }

func (s *stubProvider) Profile(ctx context.Context, authorization string) ([]byte, error) {
	return nil, provider.ErrNoProfileEndpoint
}

func (s *stubProvider) SetCallbacks(cb provider.Callbacks) {}

func main() {
	var (
		concurrency    = flag.Int("concurrency", 256, "number of concurrent workers")
		ops            = flag.Int("ops", 200000, "token reads in the read phase")
		windows        = flag.Int("windows", 200, "invalid-token windows in the single-flight phase")
		refreshLatency = flag.Duration("refresh-latency", 5*time.Millisecond, "simulated provider refresh latency")
		redisAddr      = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix         = flag.String("prefix", "gosession-lt", "durable tier key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *windows <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency, ops, and windows must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	stub := &stubProvider{latency: *refreshLatency}

	controller, err := gosession.New().
		WithConfig(loadtestConfig(*prefix)).
		WithProvider(stub).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer controller.Close()

	if _, err := controller.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := controller.Login(ctx, gosession.Credentials{Username: "loadtest", Password: "loadtest"}); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	readStats := runReadPhase(ctx, controller, *ops, *concurrency)
	flightStats, refreshes := runFlightPhase(ctx, controller, stub, *windows, *concurrency)

	snapshot := controller.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("flight", flightStats)
	fmt.Printf("flight: windows=%d provider-refreshes=%d coalesced-waiters=%d\n",
		*windows,
		refreshes,
		snapshot.Counters[gosession.MetricRefreshCoalesced],
	)
}

func loadtestConfig(prefix string) gosession.Config {
	return gosession.Config{
		Tokens: gosession.TokensConfig{
			ExpiryBuffer: 30 * time.Second,
			// The flight-phase tokens expire inside the lead window, so the
			// scheduler never arms and the phases drive every refresh.
			RefreshLead:    0,
			RefreshTimeout: 10 * time.Second,
		},
		Storage: gosession.StorageConfig{
			DurableTier: gosession.DurableRedis,
			RedisPrefix: prefix,
			RedisTTL:    time.Hour,
		},
		Claims: gosession.ClaimsConfig{
			DefaultResource: "admin-console",
			MaxTokenBytes:   64 * 1024,
		},
		Classifier: gosession.ClassifierConfig{
			BaseRetryDelay: time.Second,
			MaxRetryDelay:  30 * time.Second,
		},
		Metrics: gosession.MetricsConfig{Enabled: true},
	}
}

// runReadPhase hammers the hot token-read path while the stored token stays
// valid; no refresh traffic should appear.
func runReadPhase(ctx context.Context, c *gosession.Controller, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := c.AccessToken(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runFlightPhase opens invalid-token windows and lets every worker demand a
// valid token at once. All callers of one window should share a single
// provider refresh.
func runFlightPhase(ctx context.Context, c *gosession.Controller, stub *stubProvider, windows, concurrency int) (phaseStats, int64) {
	var (
		failures  int64
		latencies = make([]time.Duration, 0, windows*concurrency)
		mu        sync.Mutex
	)

	before := stub.refreshes.Load()

	start := time.Now()
	for w := 0; w < windows; w++ {
		// Re-store the current pair with an already-spent lifetime so the
		// next reads all find it invalid.
		c.Manager().StoreTokens(ctx, token.Record{
			AccessToken:  "expired-access",
			RefreshToken: fmt.Sprintf("window-refresh-%d", w),
			TokenType:    "Bearer",
			ExpiresIn:    1,
		})

		var wg sync.WaitGroup
		for g := 0; g < concurrency; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				_, err := c.AccessToken(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		wg.Wait()
	}
	total := time.Since(start)

	return computeStats(total, latencies, failures), stub.refreshes.Load() - before
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// unsignedToken assembles a decodable token so claim derivation sees a grant
// set; the signature segment is garbage by design of the decoder.
func unsignedToken(serial int64) string {
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	payload, _ := json.Marshal(map[string]any{
		"sub":                "loadtest-user",
		"preferred_username": "loadtest",
		"jti":                fmt.Sprintf("lt-%d", serial),
		"realm_access":       map[string]any{"roles": []string{"store-admin"}},
	})
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("unsigned"))
}
