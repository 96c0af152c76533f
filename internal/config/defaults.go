package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	DefaultWorkers    = 8
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3

	DefaultRegistryURL = "https://pypi.org"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".depdiff"
	}
	return filepath.Join(home, ".depdiff")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
		},
		Workspace: WorkspaceConfig{
			Root: "",
		},
		Registry: RegistryConfig{
			BaseURL:    DefaultRegistryURL,
			MaxRetries: DefaultMaxRetries,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
