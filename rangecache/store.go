package rangecache

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/storage"
)

// StorageStore keeps one JSON document per key in object storage.
// TTLs are ignored.
type StorageStore[C any] struct {
	storage storage.Storage
	prefix  string
}

var _ provider.ContextStore[struct{}] = (*StorageStore[struct{}])(nil)

// NewStorageStore stores documents under prefix in s.
func NewStorageStore[C any](s storage.Storage, prefix string) *StorageStore[C] {
	return &StorageStore[C]{storage: s, prefix: prefix}
}

func (s *StorageStore[C]) path(key string) string {
	return path.Join(s.prefix, key+".json")
}

// Load reads the document for key. A missing document yields (nil, nil).
func (s *StorageStore[C]) Load(ctx context.Context, key string) (*C, error) {
	var val C
	if err := storage.ReadJSON(ctx, s.storage, s.path(key), &val); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &val, nil
}

// Save writes the document for key.
func (s *StorageStore[C]) Save(ctx context.Context, key string, val *C, _ time.Duration) error {
	return storage.WriteJSON(ctx, s.storage, s.path(key), val)
}

// Delete removes the document for key.
func (s *StorageStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, s.path(key)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
