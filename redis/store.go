package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/voiceid/provider"
)

// EntryStore keeps one JSON document per key under "<prefix>:<key>".
type EntryStore[C any] struct {
	client *Client
	prefix string
}

var _ provider.ContextStore[any] = (*EntryStore[any])(nil)

// NewEntryStore creates a store; an empty prefix uses keys as given.
func NewEntryStore[C any](client *Client, prefix string) *EntryStore[C] {
	return &EntryStore[C]{client: client, prefix: prefix}
}

func (s *EntryStore[C]) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Load returns (nil, nil) when the key is absent or expired.
func (s *EntryStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis load %s: %w", key, err)
	}
	v := new(C)
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return v, nil
}

// Save overwrites key. Redis expires it after ttl when ttl > 0.
func (s *EntryStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl); err != nil {
		return fmt.Errorf("redis save %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *EntryStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
