package rangecache

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/provider"
)

// Cache is a range cache for one pipeline stage.
type Cache[T Spanner] struct {
	stage string
	store provider.ContextStore[Entry[T]]
	log   *logger.Logger
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL expires entries after d on stores that support it.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithClock overrides the timestamp source for CachedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache for stage backed by store.
func New[T Spanner](stage string, store provider.ContextStore[Entry[T]], log *logger.Logger, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		stage: stage,
		store: store,
		log:   log.WithComponent("rangecache").WithFields(map[string]interface{}{logger.FieldStage: stage}),
		ttl:   o.ttl,
		now:   o.now,
	}
}

// Stage returns the stage name this cache serves.
func (c *Cache[T]) Stage() string { return c.stage }

// Get returns the cached items overlapping [start, end) when the entry for
// key covers end. Absent, short and unreadable entries are all misses.
func (c *Cache[T]) Get(ctx context.Context, key string, start, end float64) ([]T, bool) {
	entry, err := c.store.Load(ctx, key)
	if err != nil {
		readErr := apperrors.CacheRead(key, err)
		c.log.Warn("Cache entry unreadable, treating as miss", map[string]interface{}{
			logger.FieldCacheKey: key,
			"code":               string(readErr.Code),
			logger.FieldError:    readErr.Error(),
		})
		return nil, false
	}
	if !entry.Covers(end) {
		fields := map[string]interface{}{logger.FieldCacheKey: key, "end": end}
		if entry != nil {
			fields["cached_end"] = entry.CachedEnd
		}
		c.log.Debug("Cache miss", fields)
		return nil, false
	}

	items := Overlapping(entry.Payload, start, end)
	c.log.Debug("Cache hit", map[string]interface{}{
		logger.FieldCacheKey: key,
		"cached_end":         entry.CachedEnd,
		"items":              len(items),
	})
	return items, true
}

// Put replaces the entry for key with payload covering [0, end].
//
// Coverage is never extended incrementally: a result for a longer range is
// always recomputed from zero and written over the old entry. Stitching a
// new tail onto the stored payload across an overlap window would avoid the
// recomputation, but nothing relies on it.
func (c *Cache[T]) Put(ctx context.Context, key string, params map[string]string, payload []T, end float64) error {
	entry := &Entry[T]{
		Key:       key,
		CachedAt:  c.now().UTC(),
		CachedEnd: end,
		Params:    params,
		Payload:   payload,
	}
	if entry.Payload == nil {
		entry.Payload = []T{}
	}
	if err := c.store.Save(ctx, key, entry, c.ttl); err != nil {
		return fmt.Errorf("rangecache %s: save %q: %w", c.stage, key, err)
	}
	c.log.Debug("Cache entry written", map[string]interface{}{
		logger.FieldCacheKey: key,
		"cached_end":         end,
		"items":              len(payload),
	})
	return nil
}
