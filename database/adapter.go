package database

import (
	"context"

	"github.com/kbukum/voiceid/provider"
)

var _ provider.Provider = (*DB)(nil)

func (d *DB) Name() string { return "database" }

// IsAvailable is false once Close has been called or a ping fails.
func (d *DB) IsAvailable(ctx context.Context) bool {
	return !d.closed.Load() && d.PingContext(ctx) == nil
}
