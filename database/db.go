package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/resilience"
)

// DB is an open gorm session over the speaker database.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	closed atomic.Bool
}

// Open connects to the sqlite database named by cfg.DSN.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	return OpenDialector(ctx, sqlite.Open(cfg.DSN), cfg, log)
}

// OpenDialector connects through any gorm dialector. A failed connect or
// ping is retried up to cfg.ConnectAttempts times.
func OpenDialector(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	cfg.Enabled = true
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.ConnectAttempts,
		InitialBackoff: time.Second,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("Database connect failed, retrying", map[string]interface{}{
				"attempt":         attempt,
				logger.FieldError: err.Error(),
				"backoff":         backoff.String(),
			})
		},
	}
	gdb, err := resilience.Retry(ctx, retry, func() (*gorm.DB, error) {
		return connect(ctx, dialector, cfg, log)
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	log.Info("Database connected", map[string]interface{}{"dsn": cfg.DSN})
	return &DB{GormDB: gdb, log: log}, nil
}

func connect(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: newQueryLog(log, cfg.LogLevel, cfg.SlowQuery)})
	if err != nil {
		return nil, err
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return gdb, nil
}

// Close releases the pool. Later calls are no-ops.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	pool, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.log.Debug("Database closed")
	return pool.Close()
}

func (d *DB) PingContext(ctx context.Context) error {
	pool, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// WithContext starts a session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

func (d *DB) AutoMigrate(models ...interface{}) error {
	if err := d.GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// WithTransaction commits when fn returns nil and rolls back otherwise,
// including when fn panics.
func (d *DB) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.GormDB.WithContext(ctx).Transaction(fn)
}
