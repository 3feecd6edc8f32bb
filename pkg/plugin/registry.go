package plugin

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the host's authoritative table of validated, currently
// loaded plugins. Manifests are assumed already validated before
// Register is called; the registry itself never re-validates.
type Registry struct {
	logger   zerolog.Logger
	notifier *Notifier
	plugins  map[string]*Manifest
	mu       sync.RWMutex
}

// NewRegistry creates a new plugin registry publishing lifecycle
// events through the given notifier.
func NewRegistry(logger zerolog.Logger, notifier *Notifier) *Registry {
	return &Registry{
		logger:   logger.With().Str("component", "plugin-registry").Logger(),
		notifier: notifier,
		plugins:  make(map[string]*Manifest),
	}
}

// Register stores or replaces the manifest for pluginID and emits
// PluginRegistered. The stored value is a private clone, so later
// mutation of the caller's manifest cannot corrupt registry state.
func (r *Registry) Register(pluginID string, manifest *Manifest) {
	r.mu.Lock()
	r.plugins[pluginID] = manifest.Clone()
	r.mu.Unlock()

	r.logger.Debug().Str("plugin", pluginID).Msg("Registered plugin")
	r.notifier.Emit(PluginRegistered{PluginID: pluginID})
}

// Unregister removes the entry if present and emits PluginUnregistered.
// Removal is idempotent: an absent ID is a no-op and emits nothing.
func (r *Registry) Unregister(pluginID string) {
	r.mu.Lock()
	_, existed := r.plugins[pluginID]
	if existed {
		delete(r.plugins, pluginID)
	}
	r.mu.Unlock()

	if !existed {
		return
	}

	r.logger.Debug().Str("plugin", pluginID).Msg("Unregistered plugin")
	r.notifier.Emit(PluginUnregistered{PluginID: pluginID})
}

// IsRegistered reports whether pluginID is currently registered
func (r *Registry) IsRegistered(pluginID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[pluginID]
	return ok
}

// Get returns a defensive copy of the stored manifest. An empty ID
// yields ErrPluginIDRequired, an unknown ID ErrPluginNotFound.
func (r *Registry) Get(pluginID string) (*Manifest, error) {
	if pluginID == "" {
		return nil, ErrPluginIDRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	manifest, ok := r.plugins[pluginID]
	if !ok {
		return nil, NotFoundError(pluginID)
	}
	return manifest.Clone(), nil
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ListIDs returns all registered plugin IDs in sorted order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListAll returns defensive copies of all registered manifests,
// ordered by plugin ID.
func (r *Registry) ListAll() []*Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	manifests := make([]*Manifest, 0, len(ids))
	for _, id := range ids {
		manifests = append(manifests, r.plugins[id].Clone())
	}
	return manifests
}

// Clear wipes all entries without emitting per-plugin events.
// Reserved for test harnesses and full host resets; a full reset also
// clears the metadata store (see Host.Reset).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]*Manifest)
}
