package speaker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/voiceid/embedding"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/storage"
)

// DefaultDocumentPath is where DocumentStore keeps its document when no
// path is configured.
const DefaultDocumentPath = "speakers.json"

type document struct {
	Speakers []Speaker `json:"speakers"`
}

// DocumentStore keeps all speakers in one JSON document:
//
//	{"speakers": [{"name": "Alice", "embeddings": [[0.1, ...]]}]}
//
// The document is read once and kept in memory. Writes rewrite the whole
// document; there is no locking between processes.
type DocumentStore struct {
	storage storage.Storage
	path    string
	log     *logger.Logger

	mu     sync.RWMutex
	loaded bool
	doc    document
}

var _ ReadWriter = (*DocumentStore)(nil)

// NewDocumentStore creates a store for the document at path in s.
func NewDocumentStore(s storage.Storage, path string, log *logger.Logger) *DocumentStore {
	if path == "" {
		path = DefaultDocumentPath
	}
	return &DocumentStore{storage: s, path: path, log: log.WithComponent("speaker")}
}

// reloadLocked discards the in-memory copy and reads the document again.
func (s *DocumentStore) reloadLocked(ctx context.Context) error {
	s.loaded = false
	return s.loadLocked(ctx)
}

func (s *DocumentStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	var doc document
	if err := storage.ReadJSON(ctx, s.storage, s.path, &doc); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("speaker document %s: %w", s.path, err)
		}
		s.log.Debug("Speaker document not found, starting empty", map[string]interface{}{"path": s.path})
	}
	s.doc = doc
	s.loaded = true
	return nil
}

func (s *DocumentStore) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *DocumentStore) Speakers(ctx context.Context) ([]Speaker, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doc.Speakers), nil
}

func (s *DocumentStore) EmbeddingCount(ctx context.Context) (int, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.doc.Speakers), nil
}

// AddEmbedding re-reads the document before appending so enrollments written
// by another store since the last read are kept.
func (s *DocumentStore) AddEmbedding(ctx context.Context, name string, vec embedding.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(ctx); err != nil {
		return err
	}
	name, err := CheckEnrollment(name, vec, s.doc.Speakers)
	if err != nil {
		return err
	}

	next := document{Speakers: appendEmbedding(clone(s.doc.Speakers), name, append(embedding.Vector(nil), vec...))}
	if err := storage.WriteJSON(ctx, s.storage, s.path, next); err != nil {
		return fmt.Errorf("speaker document %s: %w", s.path, err)
	}
	s.doc = next
	s.log.Info("Embedding enrolled", map[string]interface{}{
		"speaker":    name,
		"embeddings": Count(next.Speakers),
	})
	return nil
}
