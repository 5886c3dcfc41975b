package config

import (
	"fmt"

	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/validation"
)

// ServiceConfig is the part of every voiceid config that bootstrap reads.
// Application configs embed it with `mapstructure:",squash"`.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults runs in development unless told otherwise, and development
// turns Debug on.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Debug = c.Debug || c.Environment == "development"
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate also checks the nested logging section.
func (c *ServiceConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GetServiceConfig lets configs that embed ServiceConfig satisfy
// bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }
