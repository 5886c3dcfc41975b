package database

import (
	"fmt"
	"time"

	"github.com/kbukum/voiceid/validation"
)

// Config selects the sqlite file behind the sql speaker store.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DSN is a sqlite connection string such as "file:speakers.db" or ":memory:".
	DSN string `yaml:"dsn" mapstructure:"dsn" validate:"required"`

	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// ConnectAttempts bounds how often Open tries before giving up.
	ConnectAttempts int  `yaml:"connect_attempts" mapstructure:"connect_attempts" validate:"gte=1"`
	AutoMigrate     bool `yaml:"auto_migrate" mapstructure:"auto_migrate"`

	// SlowQuery logs statements slower than this at warn level. Zero disables it.
	SlowQuery time.Duration `yaml:"slow_query" mapstructure:"slow_query"`
	LogLevel  string        `yaml:"log_level" mapstructure:"log_level" validate:"oneof=silent error warn info"`
}

// ApplyDefaults sizes the pool for a single sqlite writer.
func (c *Config) ApplyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	if c.SlowQuery == 0 {
		c.SlowQuery = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate passes for a disabled database.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}
