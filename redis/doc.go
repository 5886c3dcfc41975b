// Package redis is the redis backend for the range cache.
//
// Client wraps go-redis with the logger and config conventions used across
// voiceid. EntryStore stores JSON values under a key prefix and satisfies
// provider.ContextStore, so a cache can be pointed at redis:
//
//	client, _ := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	store := redis.NewEntryStore[rangecache.Entry[diarization.Segment]](client, "voiceid:diarization")
//
// Component wraps Client for the component registry.
package redis
