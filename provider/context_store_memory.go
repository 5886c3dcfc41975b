package provider

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ContextStore and the engine's default range
// cache backend. Values are stored by pointer, so callers must not mutate
// what they Save or Load. Expired entries are dropped on Load.
type MemoryStore[C any] struct {
	mu    sync.Mutex
	items map[string]memEntry[C]
	now   func() time.Time
}

type memEntry[C any] struct {
	val     *C
	expires time.Time
}

var _ ContextStore[any] = (*MemoryStore[any])(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore[C any]() *MemoryStore[C] {
	return &MemoryStore[C]{items: make(map[string]memEntry[C]), now: time.Now}
}

// Load returns (nil, nil) for a missing or expired key.
func (s *MemoryStore[C]) Load(_ context.Context, key string) (*C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.items, key)
		return nil, nil
	}
	return e.val, nil
}

// Save replaces the value under key. A zero ttl never expires.
func (s *MemoryStore[C]) Save(_ context.Context, key string, val *C, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry[C]{val: val}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.items[key] = e
	return nil
}

// Delete removes key.
func (s *MemoryStore[C]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len counts stored entries, expired ones included until their next Load.
func (s *MemoryStore[C]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
