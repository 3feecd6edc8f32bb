package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ManifestFilename is the manifest file expected in every plugin package
const ManifestFilename = "plugin.json"

// Discovery scans directories to find plugin packages
type Discovery struct {
	logger zerolog.Logger
}

// NewDiscovery creates a new plugin discovery instance
func NewDiscovery(logger zerolog.Logger) *Discovery {
	return &Discovery{
		logger: logger.With().Str("component", "plugin-discovery").Logger(),
	}
}

// DiscoverPlugins scans the configured directories for plugin
// packages. A package is any subdirectory containing a plugin.json;
// the manifest itself is not validated here.
func (d *Discovery) DiscoverPlugins(config DiscoveryConfig) ([]DiscoveredPlugin, error) {
	var discovered []DiscoveredPlugin

	if config.BuiltinDir != "" {
		plugins, err := d.scanDirectory(config.BuiltinDir, SourceBuiltin)
		if err != nil {
			d.logger.Warn().Err(err).Str("dir", config.BuiltinDir).Msg("Failed to scan builtin directory")
		} else {
			discovered = append(discovered, plugins...)
		}
	}

	if config.UserDir != "" {
		plugins, err := d.scanDirectory(config.UserDir, SourceUser)
		if err != nil {
			d.logger.Warn().Err(err).Str("dir", config.UserDir).Msg("Failed to scan user directory")
		} else {
			discovered = append(discovered, plugins...)
		}
	}

	for _, extraDir := range config.ExtraDirs {
		if extraDir == "" {
			continue
		}
		plugins, err := d.scanDirectory(extraDir, SourceExtra)
		if err != nil {
			d.logger.Warn().Err(err).Str("dir", extraDir).Msg("Failed to scan extra directory")
		} else {
			discovered = append(discovered, plugins...)
		}
	}

	d.logger.Info().Int("count", len(discovered)).Msg("Plugin discovery completed")
	return discovered, nil
}

// scanDirectory scans a single directory for plugin packages
func (d *Discovery) scanDirectory(dir string, source PluginSource) ([]DiscoveredPlugin, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Debug().Str("dir", dir).Msg("Directory does not exist, skipping")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var discovered []DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(dir, entry.Name())
		manifestPath := filepath.Join(pluginPath, ManifestFilename)
		if _, err := os.Stat(manifestPath); err != nil {
			d.logger.Debug().Str("dir", pluginPath).Msg("No manifest, skipping")
			continue
		}

		discovered = append(discovered, DiscoveredPlugin{
			ID:           entry.Name(),
			Path:         pluginPath,
			Source:       source,
			ManifestPath: manifestPath,
		})
	}

	return discovered, nil
}
