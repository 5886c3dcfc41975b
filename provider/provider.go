package provider

import "context"

// Provider is what every backend (embedding model, transcriber, cache
// client) exposes to the code that selects it.
type Provider interface {
	Name() string
	// IsAvailable reports whether the backend can serve a call now.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider from the free-form settings map of its config
// section.
type Factory[T Provider] func(cfg map[string]any) (T, error)
