package storage

import (
	"fmt"

	"github.com/kbukum/voiceid/validation"
)

// Backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Config is shared by every backend; each reads only its own fields.
type Config struct {
	Provider string `mapstructure:"provider" validate:"oneof=local s3"`

	// BasePath is the root directory of the local backend.
	BasePath string `mapstructure:"base_path" validate:"required_if=Provider local"`

	Bucket string `mapstructure:"bucket" validate:"required_if=Provider s3"`
	// Prefix is prepended to every S3 key.
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region" validate:"required_if=Provider s3"`
	// Endpoint points the S3 client at a compatible service such as MinIO.
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key" validate:"required_with=SecretKey"`
	SecretKey      string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// ApplyDefaults selects local storage under ./data.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = "./data"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
