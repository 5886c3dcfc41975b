package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/voiceid/logger"
)

// StopTimeout bounds each component's Stop call.
const StopTimeout = 10 * time.Second

type slot struct {
	c       Component
	running bool
}

// Registry owns the infrastructure components of a run. They start in
// registration order and stop in reverse, so register dependencies first.
type Registry struct {
	mu    sync.Mutex
	slots []*slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if slices.ContainsFunc(r.slots, func(s *slot) bool { return s.c.Name() == name }) {
		return fmt.Errorf("component %s already registered", name)
	}
	r.slots = append(r.slots, &slot{c: c})
	logger.Debug("Component registered", map[string]interface{}{logger.FieldComponent: name})
	return nil
}

// StartAll starts components in order and stops at the first failure.
// Components started before it stay running until StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		name := s.c.Name()
		if err := s.c.Start(ctx); err != nil {
			logger.Error("Component start failed", logger.ErrorFields("start "+name, err))
			return fmt.Errorf("start %s: %w", name, err)
		}
		s.running = true

		fields := map[string]interface{}{logger.FieldComponent: name}
		if d, ok := s.c.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		logger.Info("Component started", fields)
	}
	return nil
}

// StopAll stops running components in reverse order. Every component gets
// its Stop call; the failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, s := range slices.Backward(r.slots) {
		if !s.running {
			continue
		}
		s.running = false
		name := s.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := s.c.Stop(stopCtx)
		cancel()
		if err != nil {
			logger.Error("Component stop failed", logger.ErrorFields("stop "+name, err))
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			continue
		}
		logger.Debug("Component stopped", map[string]interface{}{logger.FieldComponent: name})
	}
	return errors.Join(errs...)
}

// HealthAll reports every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	comps := r.All()
	out := make([]Health, len(comps))
	for i, c := range comps {
		out[i] = c.Health(ctx)
	}
	return out
}

// All returns the registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Component, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.c
	}
	return out
}
