// Package config loads the runic.yml project file consumed by the CLI.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the Runic tooling configuration
type Config struct {
	Schema SchemaConfig `mapstructure:"schema"`
	Output OutputConfig `mapstructure:"output"`
}

// SchemaConfig locates the compiled schema payload
type SchemaConfig struct {
	Path     string `mapstructure:"path"`
	RootType string `mapstructure:"root_type"`
}

// OutputConfig controls report formatting
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load loads the configuration from runic.yml or runic.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("schema.path", "")
	v.SetDefault("schema.root_type", "")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.no_color", false)

	// Set config name and paths
	v.SetConfigName("runic")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("RUNIC")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Output.Format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid output.format %q (want text or json)", cfg.Output.Format)
	}
}
