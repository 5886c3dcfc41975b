package speaker

import (
	"context"
	"sync"

	"github.com/kbukum/voiceid/embedding"
)

// MemoryStore is an in-process ReadWriter.
type MemoryStore struct {
	mu       sync.RWMutex
	speakers []Speaker
}

var _ ReadWriter = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with speakers.
func NewMemoryStore(speakers ...Speaker) *MemoryStore {
	return &MemoryStore{speakers: clone(speakers)}
}

func (s *MemoryStore) Speakers(_ context.Context) ([]Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.speakers), nil
}

func (s *MemoryStore) EmbeddingCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.speakers), nil
}

func (s *MemoryStore) AddEmbedding(_ context.Context, name string, vec embedding.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, err := CheckEnrollment(name, vec, s.speakers)
	if err != nil {
		return err
	}
	s.speakers = appendEmbedding(s.speakers, name, append(embedding.Vector(nil), vec...))
	return nil
}
