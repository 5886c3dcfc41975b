package logger

import (
	"fmt"

	"github.com/kbukum/voiceid/validation"
)

// Config is the logging section of the service config.
type Config struct {
	Level       string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal"`
	Format      string `yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`
	Output      string `yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults logs info and above to stderr in console format.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
