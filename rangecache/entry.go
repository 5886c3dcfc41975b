package rangecache

import "time"

// Spanner is implemented by cached items that occupy a time range.
type Spanner interface {
	Span() (start, end float64)
}

// Entry is the persisted form of one cache key.
type Entry[T any] struct {
	Key       string            `json:"key"`
	CachedAt  time.Time         `json:"cached_at"`
	CachedEnd float64           `json:"cached_end"`
	Params    map[string]string `json:"params,omitempty"`
	Payload   []T               `json:"payload"`
}

// Covers reports whether the entry's coverage reaches end.
func (e *Entry[T]) Covers(end float64) bool {
	return e != nil && e.CachedEnd >= end
}

// Overlapping returns the items with item.end > start and item.start < end.
// An item that only touches the range boundary is excluded.
func Overlapping[T Spanner](items []T, start, end float64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		s, e := item.Span()
		if e > start && s < end {
			out = append(out, item)
		}
	}
	return out
}
