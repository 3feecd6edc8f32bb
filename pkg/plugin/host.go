package plugin

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// HostVersion is the application version plugins validate their
// engines.sqlpro range against.
const HostVersion = "1.0.0"

// ValidationFailedError wraps a failed validation result so install
// flows can surface the numbered report while callers that care can
// still reach the structured errors via errors.As.
type ValidationFailedError struct {
	Result *ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return "manifest validation failed:\n" + FormatErrors(e.Result.Errors)
}

// HostConfig configures a plugin host
type HostConfig struct {
	Logger  zerolog.Logger
	DevMode bool

	// Optional collaborators. Nil disables the corresponding scoped
	// API surface (storage, query) or instrumentation.
	Storage StorageService
	Query   QueryService
	Instr   Instrumentation

	// Prober overrides AppInfo computation, used by tests
	Prober AppInfoProber
}

// Host owns the plugin trust boundary: validation, registry, metadata,
// events, and the per-plugin API factory. It is an explicitly
// constructed service with controlled lifetime, not ambient global
// state; tests and embedders may run several independent hosts.
type Host struct {
	logger    zerolog.Logger
	validator *Validator
	notifier  *Notifier
	registry  *Registry
	metadata  *MetadataStore
	ui        *UIRegistry
	discovery *Discovery
	factory   *APIFactory
	instr     Instrumentation
}

// NewHost creates a fully wired plugin host
func NewHost(cfg HostConfig) *Host {
	logger := cfg.Logger.With().Str("component", "plugin-host").Logger()

	prober := cfg.Prober
	if prober == nil {
		devMode := cfg.DevMode
		prober = func() AppInfo {
			return AppInfo{
				Version:  HostVersion,
				Platform: runtime.GOOS,
				Arch:     runtime.GOARCH,
				DevMode:  devMode,
			}
		}
	}

	notifier := NewNotifier(cfg.Logger)
	registry := NewRegistry(cfg.Logger, notifier)
	metadata := NewMetadataStore(cfg.Logger, notifier, prober)
	ui := NewUIRegistry()
	factory := NewAPIFactory(cfg.Logger, registry, metadata, ui, cfg.Storage, cfg.Query, cfg.Instr)

	return &Host{
		logger:    logger,
		validator: NewValidator(cfg.Logger),
		notifier:  notifier,
		registry:  registry,
		metadata:  metadata,
		ui:        ui,
		discovery: NewDiscovery(cfg.Logger),
		factory:   factory,
		instr:     cfg.Instr,
	}
}

// Validator returns the manifest validator
func (h *Host) Validator() *Validator { return h.validator }

// Registry returns the plugin registry
func (h *Host) Registry() *Registry { return h.registry }

// Metadata returns the connection/application metadata store
func (h *Host) Metadata() *MetadataStore { return h.metadata }

// Notifier returns the event notifier
func (h *Host) Notifier() *Notifier { return h.notifier }

// UI returns the UI contribution registry
func (h *Host) UI() *UIRegistry { return h.ui }

// Factory returns the capability-scoped API factory
func (h *Host) Factory() *APIFactory { return h.factory }

// Install validates a manifest file, checks engine compatibility, and
// registers the plugin. Validation failures come back as a
// *ValidationFailedError carrying the structured error list.
func (h *Host) Install(manifestPath string) (*Manifest, error) {
	result, err := h.validator.ValidateFile(manifestPath)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		h.observeValidation(false)
		return nil, &ValidationFailedError{Result: result}
	}
	h.observeValidation(true)

	manifest := result.Manifest
	if err := CheckEngineCompatibility(manifest, HostVersion); err != nil {
		return nil, fmt.Errorf("engine compatibility check failed: %w", err)
	}

	h.registry.Register(manifest.ID, manifest)
	h.observeCount()

	h.logger.Info().
		Str("plugin", manifest.ID).
		Str("version", manifest.Version).
		Msg("Installed plugin")

	return manifest, nil
}

// InstallAll discovers and installs every plugin under the configured
// directories. Individual failures do not abort the batch.
func (h *Host) InstallAll(config DiscoveryConfig) *InstallResult {
	result := &InstallResult{Errors: make(map[string]error)}

	discovered, err := h.discovery.DiscoverPlugins(config)
	if err != nil {
		h.logger.Error().Err(err).Msg("Plugin discovery failed")
		return result
	}

	for _, plugin := range discovered {
		manifest, err := h.Install(plugin.ManifestPath)
		if err != nil {
			result.Failed = append(result.Failed, plugin.ID)
			result.Errors[plugin.ID] = err
			h.logger.Warn().Err(err).Str("plugin", plugin.ID).Msg("Failed to install plugin")
			continue
		}
		result.Installed = append(result.Installed, manifest.ID)
	}

	return result
}

// Uninstall unregisters a plugin and tears down its UI contributions.
// Unknown IDs are a no-op.
func (h *Host) Uninstall(pluginID string) {
	removed := h.ui.UnregisterByPlugin(pluginID)
	if len(removed) > 0 {
		h.logger.Debug().
			Str("plugin", pluginID).
			Strs("contributions", removed).
			Msg("Removed UI contributions")
	}

	h.registry.Unregister(pluginID)
	h.observeCount()
}

// Reset wipes the registry and the metadata store, including the
// cached AppInfo. Reserved for test harnesses and full host resets.
func (h *Host) Reset() {
	h.registry.Clear()
	h.metadata.Clear()
	h.observeCount()
}

func (h *Host) observeValidation(valid bool) {
	if h.instr != nil {
		h.instr.ObserveValidation(valid)
	}
}

func (h *Host) observeCount() {
	if h.instr != nil {
		h.instr.SetRegisteredPlugins(h.registry.Count())
	}
}
