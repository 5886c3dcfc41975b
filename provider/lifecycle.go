package provider

import "context"

// Initializable providers are prepared by Manager.Open before first use,
// e.g. a sidecar loading its model.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable providers are released by Manager.CloseAll.
type Closeable interface {
	Close(ctx context.Context) error
}
