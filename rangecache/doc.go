// Package rangecache caches time-ranged stage results whose coverage always
// starts at zero.
//
// An entry covers [0, CachedEnd]. A lookup for [start, end) is a hit when
// CachedEnd >= end, and returns only the stored items overlapping the
// requested range. Writes replace the whole entry. Every parameter that
// changes a stage's output is folded into the key, so stale entries are
// never read back and nothing is ever invalidated explicitly.
//
//	c := rangecache.New[diarization.Segment]("diarization", store, log)
//	key := rangecache.Key("diarization", "episode-12", params)
//	if segs, ok := c.Get(ctx, key, 10, 50); ok {
//	    return segs
//	}
//
// Entries are persisted through any provider.ContextStore: StorageStore for
// local disk or S3, redis.EntryStore, or provider.MemoryStore. Concurrent
// writers to one key are not coordinated; the last write wins.
package rangecache
