package token

import (
	"context"
	"log"

	"github.com/MrEthical07/goSession/internal/metrics"
)

// Storage keys for the four token fields. Every [Store] implementation receives
// these as opaque strings; the tier split in [TieredStore] is keyed on
// [KeyRefreshToken].
const (
	// KeyAccessToken is an exported constant or variable used by the session core.
	KeyAccessToken = "access_token"

	// KeyRefreshToken is an exported constant or variable used by the session core.
	KeyRefreshToken = "refresh_token"

	// KeyExpiresAt is an exported constant or variable used by the session core.
	// The value is a unix-millisecond timestamp in decimal string form.
	KeyExpiresAt = "expires_at"

	// KeyTokenType is an exported constant or variable used by the session core.
	KeyTokenType = "token_type"
)

// Store defines a public type used by goSession APIs.
//
// A Store is a flat string key/value backend for token fields. Implementations
// report backend faults through the returned error; [TieredStore] is the layer
// that absorbs them.
//
// Docs: docs/storage.md
type Store interface {
	// GetItem returns the value for key, or "" when the key is absent.
	// Absence is not an error.
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem writes value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is a no-op.
	RemoveItem(ctx context.Context, key string) error
}

// TieredStore defines a public type used by goSession APIs.
//
// TieredStore routes token fields to two backends: the refresh token goes to the
// durable tier, everything else to the session tier. All reads and writes are
// best-effort — a failing backend is logged and counted, never surfaced, so a
// broken durable tier degrades to a session that cannot survive a restart
// instead of an error on the token hot path.
//
// Docs: docs/storage.md
type TieredStore struct {
	session Store
	durable Store
	metrics *metrics.Metrics
}

// NewTieredStore describes the newtieredstore operation and its observable behavior.
//
// The session tier is required. A nil durable tier routes every key to the
// session tier, which keeps the store functional but non-durable.
func NewTieredStore(session, durable Store, m *metrics.Metrics) *TieredStore {
	if durable == nil {
		durable = session
	}
	return &TieredStore{session: session, durable: durable, metrics: m}
}

// tierFor returns the backend responsible for key.
func (t *TieredStore) tierFor(key string) Store {
	if key == KeyRefreshToken {
		return t.durable
	}
	return t.session
}

// getItem reads key from its tier. Backend faults yield "".
func (t *TieredStore) getItem(ctx context.Context, key string) string {
	v, err := t.tierFor(key).GetItem(ctx, key)
	if err != nil {
		t.metrics.Inc(metrics.MetricStorageReadError)
		log.Print("goSession: token store read failed: key=", key, " err=", err)
		return ""
	}
	return v
}

// setItem writes key to its tier. Backend faults are swallowed.
func (t *TieredStore) setItem(ctx context.Context, key, value string) {
	if err := t.tierFor(key).SetItem(ctx, key, value); err != nil {
		t.metrics.Inc(metrics.MetricStorageWriteError)
		log.Print("goSession: token store write failed: key=", key, " err=", err)
	}
}

// removeItem deletes key from its tier. Backend faults are swallowed.
func (t *TieredStore) removeItem(ctx context.Context, key string) {
	if err := t.tierFor(key).RemoveItem(ctx, key); err != nil {
		t.metrics.Inc(metrics.MetricStorageWriteError)
		log.Print("goSession: token store delete failed: key=", key, " err=", err)
	}
}
