package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/voiceid/config"
	"github.com/kbukum/voiceid/database"
	"github.com/kbukum/voiceid/diarization"
	"github.com/kbukum/voiceid/observability"
	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/redis"
	"github.com/kbukum/voiceid/storage"
	"github.com/kbukum/voiceid/version"
)

// Cache and speaker store backends.
const (
	CacheStorage = "storage"
	CacheRedis   = "redis"
	CacheMemory  = "memory"

	SpeakersDocument = "document"
	SpeakersSQL      = "sql"
)

// AppConfig is the full voiceid configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Diarization   diarization.Options  `yaml:"diarization" mapstructure:"diarization"`
	Embedding     ProviderConfig       `yaml:"embedding" mapstructure:"embedding"`
	Transcription ProviderConfig       `yaml:"transcription" mapstructure:"transcription"`
	Cache         CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Speakers      SpeakersConfig       `yaml:"speakers" mapstructure:"speakers"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ProviderConfig names a registered provider and the settings passed to
// its factory.
type ProviderConfig struct {
	Provider   string                    `yaml:"provider" mapstructure:"provider"`
	Settings   map[string]any            `yaml:"settings" mapstructure:"settings"`
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// CacheConfig selects where stage cache entries live.
type CacheConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend"`
	Prefix  string        `yaml:"prefix" mapstructure:"prefix"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// SpeakersConfig selects the known-speaker store.
type SpeakersConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Path is the document path inside storage for the document backend.
	Path string `yaml:"path" mapstructure:"path"`
}

// ApplyDefaults fills unset fields in every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "voiceid"
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Diarization.ApplyDefaults()

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "sidecar"
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "whisper"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheStorage
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "cache"
	}
	if c.Speakers.Backend == "" {
		c.Speakers.Backend = SpeakersDocument
	}

	c.Storage.ApplyDefaults()
	c.Redis.ApplyDefaults()
	if c.Cache.Backend == CacheRedis {
		c.Redis.Enabled = true
	}
	c.Database.ApplyDefaults()
	if c.Speakers.Backend == SpeakersSQL {
		c.Database.Enabled = true
		c.Database.AutoMigrate = true
	}

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section that the selected backends use.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.ServiceConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Diarization.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("diarization: %w", err))
	}
	switch c.Cache.Backend {
	case CacheStorage, CacheMemory:
	case CacheRedis:
		if err := c.Redis.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of [storage, redis, memory] (got: %s)", c.Cache.Backend))
	}
	switch c.Speakers.Backend {
	case SpeakersDocument:
	case SpeakersSQL:
		if err := c.Database.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("speakers.backend must be one of [document, sql] (got: %s)", c.Speakers.Backend))
	}
	if c.usesStorage() {
		if err := c.Storage.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *AppConfig) usesStorage() bool {
	return c.Cache.Backend == CacheStorage || c.Speakers.Backend == SpeakersDocument
}
