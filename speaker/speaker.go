package speaker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kbukum/voiceid/embedding"
)

// Speaker is a named person with the embeddings enrolled for them.
type Speaker struct {
	Name       string             `json:"name"`
	Embeddings []embedding.Vector `json:"embeddings"`
}

// Store is the read side used during identification.
type Store interface {
	// Speakers returns every known speaker in enrollment order.
	Speakers(ctx context.Context) ([]Speaker, error)
	// EmbeddingCount returns the total number of enrolled embeddings.
	EmbeddingCount(ctx context.Context) (int, error)
}

// Writer appends embeddings to a speaker, creating the speaker on first use.
type Writer interface {
	AddEmbedding(ctx context.Context, name string, vec embedding.Vector) error
}

// ReadWriter is a Store that also accepts enrollments.
type ReadWriter interface {
	Store
	Writer
}

var (
	// ErrInvalidName is returned for an empty speaker name.
	ErrInvalidName = errors.New("speaker name is required")
	// ErrInvalidEmbedding is returned for empty or non-finite vectors.
	ErrInvalidEmbedding = errors.New("embedding must be non-empty and finite")
	// ErrDimensionMismatch is returned when a vector's dimension differs
	// from the embeddings already enrolled.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// CheckEnrollment validates a new embedding against the existing speakers.
func CheckEnrollment(name string, vec embedding.Vector, existing []Speaker) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(vec) == 0 || embedding.HasNaN(vec) || embedding.HasInf(vec) {
		return "", ErrInvalidEmbedding
	}
	if dim := dimension(existing); dim != 0 && dim != len(vec) {
		return "", fmt.Errorf("%w: have %d, got %d", ErrDimensionMismatch, dim, len(vec))
	}
	return name, nil
}

func dimension(speakers []Speaker) int {
	for _, s := range speakers {
		if len(s.Embeddings) > 0 {
			return len(s.Embeddings[0])
		}
	}
	return 0
}

// Count sums the embeddings of speakers.
func Count(speakers []Speaker) int {
	n := 0
	for _, s := range speakers {
		n += len(s.Embeddings)
	}
	return n
}

func appendEmbedding(speakers []Speaker, name string, vec embedding.Vector) []Speaker {
	for i := range speakers {
		if speakers[i].Name == name {
			speakers[i].Embeddings = append(speakers[i].Embeddings, vec)
			return speakers
		}
	}
	return append(speakers, Speaker{Name: name, Embeddings: []embedding.Vector{vec}})
}

func clone(speakers []Speaker) []Speaker {
	out := make([]Speaker, len(speakers))
	for i, s := range speakers {
		out[i] = Speaker{Name: s.Name, Embeddings: append([]embedding.Vector(nil), s.Embeddings...)}
	}
	return out
}
