package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is wrapped by Download when nothing is stored at the path.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes one stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is a flat object store addressed by slash-separated paths.
type Storage interface {
	// Upload replaces the object at path.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download opens the object at path; the caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// List returns every object whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// ReadJSON decodes the object at path into v. A missing object yields an
// error wrapping ErrNotFound.
func ReadJSON(ctx context.Context, s Storage, path string, v any) error {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", path, err)
	}
	return nil
}

// WriteJSON stores v as indented JSON at path.
func WriteJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", path, err)
	}
	return s.Upload(ctx, path, bytes.NewReader(data))
}
