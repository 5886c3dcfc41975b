package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/voiceid/logger"
)

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterFactory is called from a backend package's init.
func RegisterFactory(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// New opens the backend named by cfg.Provider. Its package must be linked
// in, e.g. with a blank import of storage/local.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mu.RLock()
	f, ok := factories[cfg.Provider]
	names := slices.Sorted(maps.Keys(factories))
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered (registered: %v)", cfg.Provider, names)
	}
	log = log.WithComponent("storage")
	log.Debug("Opening storage", map[string]interface{}{"provider": cfg.Provider})
	return f(ctx, cfg, log)
}
