package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gosession "github.com/MrEthical07/goSession"
)

// recordingServer captures the Authorization header of every request and
// serves scripted status codes.
type recordingServer struct {
	mu       sync.Mutex
	statuses []int
	headers  []http.Header
	bodies   []string
}

func (s *recordingServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		s.bodies = append(s.bodies, string(body))
		status := http.StatusOK
		if len(s.statuses) > 0 {
			status = s.statuses[0]
			s.statuses = s.statuses[1:]
		}
		s.mu.Unlock()

		w.WriteHeader(status)
	}
}

func (s *recordingServer) hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.headers)
}

func (s *recordingServer) authorization(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.headers) {
		return ""
	}
	return s.headers[i].Get("Authorization")
}

func TestTransportAttachesAuthorizationAndRequestID(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	rec := &recordingServer{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req = req.WithContext(gosession.WithRequestID(req.Context(), "req-42"))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	if got := rec.authorization(0); !strings.HasPrefix(got, "Bearer ") {
		t.Fatalf("Authorization = %q, want Bearer token", got)
	}

	rec.mu.Lock()
	requestID := rec.headers[0].Get("X-Request-ID")
	rec.mu.Unlock()
	if requestID != "req-42" {
		t.Fatalf("X-Request-ID = %q, want req-42", requestID)
	}
}

func TestTransportRetriesOnceAfterUnauthorized(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	rec := &recordingServer{statuses: []int{http.StatusUnauthorized, http.StatusOK}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := rec.hits(); got != 2 {
		t.Fatalf("server hits = %d, want 2", got)
	}
	if got := f.RefreshCount(); got != 1 {
		t.Fatalf("refreshes = %d, want 1", got)
	}
	if rec.authorization(0) == rec.authorization(1) {
		t.Fatal("replay carried the stale token; want the refreshed one")
	}
}

func TestTransportReturnsSecondRejection(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	rec := &recordingServer{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want the second 401 back", resp.StatusCode)
	}
	if got := rec.hits(); got != 2 {
		t.Fatalf("server hits = %d, want exactly one replay", got)
	}
	if got := f.RefreshCount(); got != 1 {
		t.Fatalf("refreshes = %d, want 1", got)
	}
}

func TestTransportRetryDisabled(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newControllerWithTransport(t, f, gosession.TransportConfig{
		RetryOnAuthFailure: false,
	})
	login(t, c)

	rec := &recordingServer{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 passthrough", resp.StatusCode)
	}
	if got := rec.hits(); got != 1 {
		t.Fatalf("server hits = %d, want 1", got)
	}
	if got := f.RefreshCount(); got != 0 {
		t.Fatalf("refreshes = %d, want 0", got)
	}
}

func TestTransportThrottlesForcedRefresh(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newControllerWithTransport(t, f, gosession.TransportConfig{
		RetryOnAuthFailure:     true,
		ForcedRefreshPerMinute: 1,
		Burst:                  1,
	})
	login(t, c)

	rec := &recordingServer{statuses: []int{
		http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized,
	}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	// First request spends the limiter burst on its forced refresh.
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	resp.Body.Close()

	// Second request gets rejected and finds the limiter empty.
	resp, err = client.Get(srv.URL)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := f.RefreshCount(); got != 1 {
		t.Fatalf("refreshes = %d, want 1", got)
	}
	if got := rec.hits(); got != 3 {
		t.Fatalf("server hits = %d, want 3", got)
	}
	if got := c.MetricsSnapshot().Counters[gosession.MetricRefreshThrottled]; got != 1 {
		t.Fatalf("throttled counter = %d, want 1", got)
	}
}

func TestTransportReplaysRequestBody(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	rec := &recordingServer{statuses: []int{http.StatusUnauthorized, http.StatusOK}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.bodies) != 2 {
		t.Fatalf("server hits = %d, want 2", len(rec.bodies))
	}
	for i, body := range rec.bodies {
		if body != "payload" {
			t.Fatalf("body[%d] = %q, want payload", i, body)
		}
	}
}

func TestTransportFailsFastWhenLoggedOut(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)

	srv := httptest.NewServer((&recordingServer{}).handler())
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(c, nil)}

	_, err := client.Get(srv.URL)
	if err == nil {
		t.Fatal("expected error without a session")
	}
	if !errors.Is(err, gosession.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
}

func TestStrictTransportNeverRetries(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	rec := &recordingServer{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := &http.Client{Transport: NewStrictTransport(c, nil)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 passthrough", resp.StatusCode)
	}
	if got := rec.hits(); got != 1 {
		t.Fatalf("server hits = %d, want 1", got)
	}
	if got := f.RefreshCount(); got != 0 {
		t.Fatalf("refreshes = %d, want 0", got)
	}
}
