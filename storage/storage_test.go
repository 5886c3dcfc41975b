package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/voiceid/component"
	"github.com/kbukum/voiceid/logger"
)

// mockStorage implements Storage for testing.
type mockStorage struct {
	data   map[string][]byte
	failOn string
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	if m.failOn == "upload" {
		return fmt.Errorf("mock upload error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.data[path] = data
	return nil
}

func (m *mockStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, path string) error {
	delete(m.data, path)
	return nil
}

func (m *mockStorage) Exists(_ context.Context, path string) (bool, error) {
	if m.failOn == "exists" {
		return false, fmt.Errorf("mock exists error")
	}
	_, ok := m.data[path]
	return ok, nil
}

func (m *mockStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var out []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"local defaults", Config{}, ""},
		{"s3 ok", Config{Provider: ProviderS3, Bucket: "cache"}, ""},
		{"s3 missing bucket", Config{Provider: ProviderS3}, "bucket: is required"},
		{"s3 half credentials", Config{Provider: ProviderS3, Bucket: "b", AccessKey: "id"}, "secret_key: is required"},
		{"unknown", Config{Provider: "ftp"}, "provider: must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReadWriteJSON(t *testing.T) {
	ctx := context.Background()
	s := newMockStorage()

	type doc struct {
		Speakers []string `json:"speakers"`
	}
	if err := WriteJSON(ctx, s, "speakers.json", doc{Speakers: []string{"alice", "bob"}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got doc
	if err := ReadJSON(ctx, s, "speakers.json", &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(got.Speakers) != 2 || got.Speakers[0] != "alice" {
		t.Errorf("unexpected doc %+v", got)
	}

	s.data["broken.json"] = []byte("{not json")
	if err := ReadJSON(ctx, s, "broken.json", &got); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
	if err := ReadJSON(ctx, s, "missing.json", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewUnregisteredProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderS3, Bucket: "b"}, logger.NewNop())
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected not registered error, got %v", err)
	}
}

func TestComponentLifecycle(t *testing.T) {
	mock := newMockStorage()
	RegisterFactory("mock", func(_ context.Context, _ Config, _ *logger.Logger) (Storage, error) {
		return mock, nil
	})
	defer delete(factories, "mock")

	// Validate rejects unknown providers, so exercise the component through
	// a pre-started backend instead of Start.
	c := NewComponent("cache-storage", Config{Provider: "mock"}, logger.NewNop())
	if c.IsAvailable(context.Background()) {
		t.Error("expected unavailable before start")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %v", h.Status)
	}

	c.storage = mock
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	mock.failOn = "exists"
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected probe failure, got %+v", h)
	}

	if err := c.Stop(context.Background()); err != nil || c.Storage() != nil {
		t.Errorf("Stop: %v", err)
	}
	if d := c.Describe(); d.Name != "cache-storage" || d.Type != "storage" {
		t.Errorf("unexpected description %+v", d)
	}
}
