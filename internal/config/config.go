package config

import (
	"fmt"
)

// Config represents the main SQLPro host configuration
type Config struct {
	// Plugins
	Plugins PluginsConfig `json:"plugins" mapstructure:"plugins"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Development mode flag
	DevMode bool `json:"dev_mode" mapstructure:"dev_mode"`
}

// PluginsConfig holds plugin discovery configuration
type PluginsConfig struct {
	BuiltinDir string   `json:"builtin_dir" mapstructure:"builtin_dir"`
	UserDir    string   `json:"user_dir" mapstructure:"user_dir"`
	ExtraDirs  []string `json:"extra_dirs" mapstructure:"extra_dirs"`
	Watch      bool     `json:"watch" mapstructure:"watch"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"`
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the default host configuration
func DefaultConfig() *Config {
	return &Config{
		Plugins: PluginsConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9187",
		},
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics enabled but no listen address configured")
	}

	for _, dir := range c.Plugins.ExtraDirs {
		if dir == "" {
			return fmt.Errorf("plugin extra_dirs entries cannot be empty")
		}
	}

	return nil
}
