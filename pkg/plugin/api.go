package plugin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// QueryService executes statements against the host's active
// connection. The database drivers behind it are host-internal; the
// scoped API only gates and delegates.
type QueryService interface {
	Query(ctx context.Context, connectionID, query string, args ...any) ([]map[string]any, error)
	Exec(ctx context.Context, connectionID, statement string, args ...any) (int64, error)
}

// StorageService is the per-plugin key-value store. Keys are
// namespaced by plugin ID by the implementation.
type StorageService interface {
	Get(ctx context.Context, pluginID, key string) (string, bool, error)
	Set(ctx context.Context, pluginID, key, value string) error
	Delete(ctx context.Context, pluginID, key string) error
}

// Instrumentation receives counters from the plugin core. A nil
// implementation disables instrumentation.
type Instrumentation interface {
	ObserveValidation(valid bool)
	SetRegisteredPlugins(n int)
	ObserveAPICall(method, status string)
	ObservePermissionDenial(permission Permission)
}

// APIFactory manufactures per-plugin scoped API objects
type APIFactory struct {
	logger   zerolog.Logger
	registry *Registry
	metadata *MetadataStore
	ui       *UIRegistry
	storage  StorageService
	query    QueryService
	instr    Instrumentation
}

// NewAPIFactory creates a factory over the host services. storage,
// query, ui, and instr may be nil; the corresponding API methods then
// fail or no-op respectively.
func NewAPIFactory(
	logger zerolog.Logger,
	registry *Registry,
	metadata *MetadataStore,
	ui *UIRegistry,
	storage StorageService,
	query QueryService,
	instr Instrumentation,
) *APIFactory {
	return &APIFactory{
		logger:   logger.With().Str("component", "api-factory").Logger(),
		registry: registry,
		metadata: metadata,
		ui:       ui,
		storage:  storage,
		query:    query,
		instr:    instr,
	}
}

// ScopedAPI produces the API surface for one plugin. The plugin must
// already be registered: asking for an unregistered plugin's API is a
// host sequencing bug and fails loudly here rather than at first call.
func (f *APIFactory) ScopedAPI(pluginID string) (*ScopedAPI, error) {
	if !f.registry.IsRegistered(pluginID) {
		return nil, fmt.Errorf("cannot create scoped API: %w", NotFoundError(pluginID))
	}
	return &ScopedAPI{
		pluginID: pluginID,
		factory:  f,
		logger:   f.logger.With().Str("plugin", pluginID).Logger(),
	}, nil
}

// ScopedAPI is the capability-scoped surface handed to a single
// plugin. Every method consults the registry at call time — grants are
// re-read from the stored manifest, never cached — and returns
// defensive copies only.
type ScopedAPI struct {
	pluginID string
	factory  *APIFactory
	logger   zerolog.Logger
}

// PluginID returns the identity this API is scoped to
func (api *ScopedAPI) PluginID() string {
	return api.pluginID
}

// GetPluginInfo returns a defensive copy of the plugin's own manifest
func (api *ScopedAPI) GetPluginInfo() (*Manifest, error) {
	manifest, err := api.factory.registry.Get(api.pluginID)
	if err != nil {
		api.observe("getPluginInfo", "error")
		return nil, err
	}
	api.observe("getPluginInfo", "ok")
	return manifest, nil
}

// GetCurrentConnection returns a copy of the active connection's
// public identity, or nil when no connection is open. Requires the
// connection:info permission.
func (api *ScopedAPI) GetCurrentConnection() (*ConnectionInfo, error) {
	if err := api.requirePermission(PermissionConnectionInfo); err != nil {
		api.observe("getCurrentConnection", "denied")
		return nil, err
	}
	api.observe("getCurrentConnection", "ok")
	return api.factory.metadata.GetCurrentConnection(), nil
}

// GetAppInfo returns the immutable application facts. Unconditionally
// permitted: the data is public and identical for every plugin.
func (api *ScopedAPI) GetAppInfo() AppInfo {
	api.observe("getAppInfo", "ok")
	return api.factory.metadata.GetAppInfo()
}

// Query runs a read-only statement against the active connection.
// Requires query:read.
func (api *ScopedAPI) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if err := api.requirePermission(PermissionQueryRead); err != nil {
		api.observe("query", "denied")
		return nil, err
	}
	conn := api.factory.metadata.GetCurrentConnection()
	if conn == nil {
		api.observe("query", "error")
		return nil, ErrConnectionNotFound
	}
	if api.factory.query == nil {
		api.observe("query", "error")
		return nil, fmt.Errorf("query service is not available")
	}
	rows, err := api.factory.query.Query(ctx, conn.ID, query, args...)
	if err != nil {
		api.observe("query", "error")
		return nil, err
	}
	api.observe("query", "ok")
	return rows, nil
}

// Exec runs a mutating statement against the active connection.
// Requires query:write and a writable connection.
func (api *ScopedAPI) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	if err := api.requirePermission(PermissionQueryWrite); err != nil {
		api.observe("exec", "denied")
		return 0, err
	}
	conn := api.factory.metadata.GetCurrentConnection()
	if conn == nil {
		api.observe("exec", "error")
		return 0, ErrConnectionNotFound
	}
	if conn.ReadOnly {
		api.observe("exec", "denied")
		return 0, fmt.Errorf("connection %q is read-only", conn.ID)
	}
	if api.factory.query == nil {
		api.observe("exec", "error")
		return 0, fmt.Errorf("query service is not available")
	}
	affected, err := api.factory.query.Exec(ctx, conn.ID, statement, args...)
	if err != nil {
		api.observe("exec", "error")
		return 0, err
	}
	api.observe("exec", "ok")
	return affected, nil
}

// StorageGet reads a value from the plugin's key-value store.
// Requires storage:read.
func (api *ScopedAPI) StorageGet(ctx context.Context, key string) (string, bool, error) {
	if err := api.requirePermission(PermissionStorageRead); err != nil {
		api.observe("storageGet", "denied")
		return "", false, err
	}
	if api.factory.storage == nil {
		api.observe("storageGet", "error")
		return "", false, fmt.Errorf("storage service is not available")
	}
	value, ok, err := api.factory.storage.Get(ctx, api.pluginID, key)
	if err != nil {
		api.observe("storageGet", "error")
		return "", false, err
	}
	api.observe("storageGet", "ok")
	return value, ok, nil
}

// StorageSet writes a value to the plugin's key-value store.
// Requires storage:write.
func (api *ScopedAPI) StorageSet(ctx context.Context, key, value string) error {
	if err := api.requirePermission(PermissionStorageWrite); err != nil {
		api.observe("storageSet", "denied")
		return err
	}
	if api.factory.storage == nil {
		api.observe("storageSet", "error")
		return fmt.Errorf("storage service is not available")
	}
	if err := api.factory.storage.Set(ctx, api.pluginID, key, value); err != nil {
		api.observe("storageSet", "error")
		return err
	}
	api.observe("storageSet", "ok")
	return nil
}

// StorageDelete removes a value from the plugin's key-value store.
// Requires storage:write.
func (api *ScopedAPI) StorageDelete(ctx context.Context, key string) error {
	if err := api.requirePermission(PermissionStorageWrite); err != nil {
		api.observe("storageDelete", "denied")
		return err
	}
	if api.factory.storage == nil {
		api.observe("storageDelete", "error")
		return fmt.Errorf("storage service is not available")
	}
	if err := api.factory.storage.Delete(ctx, api.pluginID, key); err != nil {
		api.observe("storageDelete", "error")
		return err
	}
	api.observe("storageDelete", "ok")
	return nil
}

// RegisterMenuItem contributes a menu item. Requires ui:menu.
func (api *ScopedAPI) RegisterMenuItem(item MenuItem) error {
	if err := api.requirePermission(PermissionUIMenu); err != nil {
		api.observe("registerMenuItem", "denied")
		return err
	}
	if api.factory.ui == nil {
		api.observe("registerMenuItem", "error")
		return fmt.Errorf("ui registry is not available")
	}
	if err := api.factory.ui.RegisterMenuItem(api.pluginID, item); err != nil {
		api.observe("registerMenuItem", "error")
		return err
	}
	api.logger.Debug().Str("item", item.ID).Msg("Registered menu item")
	api.observe("registerMenuItem", "ok")
	return nil
}

// RegisterPanel contributes a panel. Requires ui:panel.
func (api *ScopedAPI) RegisterPanel(panel Panel) error {
	if err := api.requirePermission(PermissionUIPanel); err != nil {
		api.observe("registerPanel", "denied")
		return err
	}
	if api.factory.ui == nil {
		api.observe("registerPanel", "error")
		return fmt.Errorf("ui registry is not available")
	}
	if err := api.factory.ui.RegisterPanel(api.pluginID, panel); err != nil {
		api.observe("registerPanel", "error")
		return err
	}
	api.logger.Debug().Str("panel", panel.ID).Msg("Registered panel")
	api.observe("registerPanel", "ok")
	return nil
}

// RegisterCommand contributes a command-palette entry. Requires ui:command.
func (api *ScopedAPI) RegisterCommand(cmd Command) error {
	if err := api.requirePermission(PermissionUICommand); err != nil {
		api.observe("registerCommand", "denied")
		return err
	}
	if api.factory.ui == nil {
		api.observe("registerCommand", "error")
		return fmt.Errorf("ui registry is not available")
	}
	if err := api.factory.ui.RegisterCommand(api.pluginID, cmd); err != nil {
		api.observe("registerCommand", "error")
		return err
	}
	api.logger.Debug().Str("command", cmd.ID).Msg("Registered command")
	api.observe("registerCommand", "ok")
	return nil
}

// requirePermission re-reads the plugin's manifest from the registry
// and checks the grant. The permission must also exist in the catalog;
// a method asking for an unknown permission is a host bug.
func (api *ScopedAPI) requirePermission(perm Permission) error {
	if !ValidPermissions[perm] {
		return fmt.Errorf("unknown permission in catalog check: %s", perm)
	}

	manifest, err := api.factory.registry.Get(api.pluginID)
	if err != nil {
		return err
	}
	if !manifest.HasPermission(perm) {
		if api.factory.instr != nil {
			api.factory.instr.ObservePermissionDenial(perm)
		}
		return &PermissionError{PluginID: api.pluginID, Permission: perm}
	}
	return nil
}

func (api *ScopedAPI) observe(method, status string) {
	if api.factory.instr != nil {
		api.factory.instr.ObserveAPICall(method, status)
	}
}
