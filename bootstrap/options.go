package bootstrap

import (
	"time"

	"github.com/kbukum/voiceid/logger"
)

// DefaultGracefulTimeout bounds shutdown unless WithGracefulTimeout is given.
const DefaultGracefulTimeout = 15 * time.Second

// Option adjusts NewApp.
type Option func(*options)

type options struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
}

func collectOptions(opts []Option) options {
	o := options{gracefulTimeout: DefaultGracefulTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger replaces the logger NewApp would build from the Logging
// section. Tests pass logger.NewNop().
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGracefulTimeout bounds stop hooks and component shutdown together.
// Non-positive values keep the default.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}
