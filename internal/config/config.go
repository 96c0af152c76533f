package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config represents the application configuration
type Config struct {
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Workspace   WorkspaceConfig   `mapstructure:"workspace" yaml:"workspace"`
	Registry    RegistryConfig    `mapstructure:"registry" yaml:"registry"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// ConcurrencyConfig contains worker and timeout settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WorkspaceConfig contains temporary storage settings
type WorkspaceConfig struct {
	// Root is the parent directory for the run workspace. Empty means the
	// system temp directory.
	Root string `mapstructure:"root" yaml:"root"`
}

// RegistryConfig contains package registry settings
type RegistryConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	UserAgent  string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration and normalizes out-of-range values
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Registry.MaxRetries < 0 {
		c.Registry.MaxRetries = DefaultMaxRetries
	}
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = DefaultRegistryURL
	}
	if _, err := url.Parse(c.Registry.BaseURL); err != nil {
		return fmt.Errorf("invalid registry.base_url: %w", err)
	}
	return nil
}
