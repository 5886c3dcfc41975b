// Package local stores objects as files under a base directory.
package local

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

// Storage maps object paths to files below root. Writes go straight to
// the target file; a crash mid-write leaves it truncated.
type Storage struct {
	root string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates root if it does not exist.
func NewStorage(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: base path %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: base path %s: %w", abs, err)
	}
	return &Storage{root: abs}, nil
}

// file cleans path as if rooted, so ".." cannot leave root.
func (s *Storage) file(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+path)))
}

func (s *Storage) Upload(_ context.Context, path string, r io.Reader) error {
	name := s.file(path)
	if err := os.MkdirAll(filepath.Dir(name), 0o750); err != nil {
		return fmt.Errorf("storage: upload %s: %w", path, err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", path, err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", path, err)
	}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.file(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("storage: download %s: %w", path, err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	err := os.Remove(s.file(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.file(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return true, nil
}

// List walks root and returns matching files sorted by path.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	var out []storage.FileInfo
	err := fs.WalkDir(os.DirFS(s.root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasPrefix(p, prefix) {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, storage.FileInfo{Path: p, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", prefix, err)
	}
	slices.SortFunc(out, func(a, b storage.FileInfo) int { return cmp.Compare(a.Path, b.Path) })
	return out, nil
}
