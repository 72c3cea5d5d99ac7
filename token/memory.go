package token

import (
	"context"
	"sync"
)

// MemoryStore defines a public type used by goSession APIs.
//
// MemoryStore is the in-process session tier: values live for the lifetime of
// the process and are never persisted. It is safe for concurrent use and never
// returns an error.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// GetItem describes the getitem operation and its observable behavior.
func (s *MemoryStore) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	v := s.values[key]
	s.mu.RUnlock()
	return v, nil
}

// SetItem describes the setitem operation and its observable behavior.
func (s *MemoryStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// RemoveItem describes the removeitem operation and its observable behavior.
func (s *MemoryStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
