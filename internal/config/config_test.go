package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Plugins.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9187", cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts every known log level", func(t *testing.T) {
		for _, level := range []string{"", "trace", "debug", "info", "warn", "error"} {
			cfg := DefaultConfig()
			cfg.Logging.Level = level
			assert.NoError(t, cfg.Validate(), "level %q", level)
		}
	})

	t.Run("metrics need an address when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = ""
		assert.Error(t, cfg.Validate())

		cfg.Metrics.Addr = "127.0.0.1:9187"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects empty extra plugin dirs", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Plugins.ExtraDirs = []string{"/opt/plugins", ""}
		assert.Error(t, cfg.Validate())
	})
}
