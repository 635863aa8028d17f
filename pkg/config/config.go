// Package config loads runtime settings for the state registry from the
// environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is applied to every environment variable read by Load.
const Prefix = "STATES"

// Config holds all runtime configuration.
type Config struct {
	Registry    RegistryConfig
	Restoration RestorationConfig
	Logging     LogConfig
	Activity    ActivityConfig
	Query       QueryConfig
}

// RegistryConfig bounds the global registry. A capacity of 0 disables
// eviction entirely.
type RegistryConfig struct {
	Capacity int `envconfig:"REGISTRY_CAPACITY" default:"5"`
}

// RestorationConfig toggles in-memory value restoration.
type RestorationConfig struct {
	Enabled bool `envconfig:"RESTORATION_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ActivityConfig controls lifecycle event emission.
type ActivityConfig struct {
	Enabled bool   `envconfig:"ACTIVITY_ENABLED" default:"false"`
	Channel string `envconfig:"ACTIVITY_CHANNEL" default:"states"`
}

// QueryConfig selects the expression engine used by state inspectors.
type QueryConfig struct {
	Engine string `envconfig:"QUERY_ENGINE" default:"expr"`
}

// Load reads configuration from STATES_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns Default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry:    RegistryConfig{Capacity: 5},
		Restoration: RestorationConfig{Enabled: true},
		Logging:     LogConfig{Level: "info"},
		Activity:    ActivityConfig{Channel: "states"},
		Query:       QueryConfig{Engine: "expr"},
	}
}

// Validate rejects settings the runtime cannot honour.
func (c *Config) Validate() error {
	if c.Registry.Capacity < 0 {
		return fmt.Errorf("config: registry capacity must not be negative, got %d", c.Registry.Capacity)
	}
	switch c.Query.Engine {
	case "", "expr", "cel", "js":
	default:
		return fmt.Errorf("config: unsupported query engine %q", c.Query.Engine)
	}
	return nil
}
