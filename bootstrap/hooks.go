package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run after every component has started and
// before the configure callbacks.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers hooks that run before components are stopped. They run
// in reverse registration order, so a configure callback can register
// cleanup that precedes the telemetry flush added at start.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runStartHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("start hook %d: %w", i, err)
		}
	}
	return nil
}

// runStopHooks runs every hook even after a failure.
func runStopHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for _, h := range slices.Backward(hooks) {
		errs = append(errs, h(ctx))
	}
	return errors.Join(errs...)
}
