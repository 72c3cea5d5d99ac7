package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is an exported constant or variable used by the session core.
const DefaultRedisPrefix = "gosession"

// DefaultRedisTTL is an exported constant or variable used by the session core.
// Keys written without an explicit TTL override expire after 30 days, which
// bounds how long an abandoned refresh token survives in Redis.
const DefaultRedisTTL = 30 * 24 * time.Hour

// RedisConfig defines a public type used by goSession APIs.
type RedisConfig struct {
	// Prefix namespaces every key as "<prefix>:<key>". Defaults to
	// DefaultRedisPrefix.
	Prefix string

	// TTL is applied to every written key. Zero means DefaultRedisTTL;
	// a negative TTL stores keys without expiry.
	TTL time.Duration
}

// RedisStore defines a public type used by goSession APIs.
//
// RedisStore is the durable tier backed by Redis. It holds the refresh token
// across process restarts so a session can be resumed without re-entering
// credentials. Absent keys read as "", matching the [Store] contract.
//
// Docs: docs/storage.md
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	ttl := cfg.TTL
	switch {
	case ttl == 0:
		ttl = DefaultRedisTTL
	case ttl < 0:
		ttl = 0
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// GetItem describes the getitem operation and its observable behavior.
//
// Performance: 1 Redis GET.
func (s *RedisStore) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, nil
}

// SetItem describes the setitem operation and its observable behavior.
//
// Performance: 1 Redis SET.
func (s *RedisStore) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveItem describes the removeitem operation and its observable behavior.
//
// Performance: 1 Redis DEL.
func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping describes the ping operation and its observable behavior.
//
// Performance: 1 Redis PING.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
