package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/voiceid/logger"
)

// Manager opens providers from registered factories and keeps them by
// name until CloseAll.
type Manager[T Provider] struct {
	registry *Registry[T]
	log      *logger.Logger

	mu   sync.RWMutex
	open map[string]T
}

// NewManager creates a Manager over registry.
func NewManager[T Provider](registry *Registry[T]) *Manager[T] {
	return &Manager[T]{
		registry: registry,
		log:      logger.Get("provider"),
		open:     make(map[string]T),
	}
}

// Register adds a factory under name.
func (m *Manager[T]) Register(name string, factory Factory[T]) {
	m.registry.RegisterFactory(name, factory)
	m.log.Debug("Provider factory registered", map[string]interface{}{"provider": name})
}

// Open builds the named provider from settings and runs its Init hook. A
// provider whose Init fails is not kept.
func (m *Manager[T]) Open(ctx context.Context, name string, settings map[string]any) (T, error) {
	p, err := m.registry.Create(name, settings)
	if err != nil {
		return p, fmt.Errorf("open provider %q: %w", name, err)
	}
	if init, ok := any(p).(Initializable); ok {
		if err := init.Init(ctx); err != nil {
			var zero T
			return zero, fmt.Errorf("init provider %q: %w", name, err)
		}
	}
	m.mu.Lock()
	m.open[name] = p
	m.mu.Unlock()
	m.log.Info("Provider ready", map[string]interface{}{"provider": name})
	return p, nil
}

// Get returns a provider opened earlier.
func (m *Manager[T]) Get(name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.open[name]
	if !ok {
		return p, fmt.Errorf("provider %q is not open", name)
	}
	return p, nil
}

// Names lists the open providers, sorted.
func (m *Manager[T]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.open))
}

// CloseAll closes every open provider implementing Closeable and forgets
// all of them.
func (m *Manager[T]) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	open := m.open
	m.open = make(map[string]T)
	m.mu.Unlock()

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(open)) {
		if c, ok := any(open[name]).(Closeable); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close provider %q: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
