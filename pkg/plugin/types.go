package plugin

// Permission represents a capability that a plugin can request
type Permission string

const (
	PermissionQueryRead      Permission = "query:read"
	PermissionQueryWrite     Permission = "query:write"
	PermissionUIMenu         Permission = "ui:menu"
	PermissionUIPanel        Permission = "ui:panel"
	PermissionUICommand      Permission = "ui:command"
	PermissionStorageRead    Permission = "storage:read"
	PermissionStorageWrite   Permission = "storage:write"
	PermissionConnectionInfo Permission = "connection:info"
)

// AllPermissions lists every grantable permission in catalog order.
// The vocabulary is fixed at compile time; there is no dynamic
// registration of new permissions.
var AllPermissions = []Permission{
	PermissionQueryRead,
	PermissionQueryWrite,
	PermissionUIMenu,
	PermissionUIPanel,
	PermissionUICommand,
	PermissionStorageRead,
	PermissionStorageWrite,
	PermissionConnectionInfo,
}

// ValidPermissions is a set of all valid permissions
var ValidPermissions = func() map[Permission]bool {
	m := make(map[Permission]bool, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = true
	}
	return m
}()

// Engines declares host version compatibility constraints
type Engines struct {
	SQLPro string `json:"sqlpro,omitempty"`
}

// Manifest represents the plugin.json file structure.
// A manifest that has passed validation is the single source of truth
// for what capabilities its plugin may request; the registry never
// grants a permission absent from Permissions.
type Manifest struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Author      string       `json:"author"`
	Main        string       `json:"main"`
	Permissions []Permission `json:"permissions,omitempty"`
	Engines     *Engines     `json:"engines,omitempty"`
	Homepage    string       `json:"homepage,omitempty"`
	Repository  string       `json:"repository,omitempty"`
	License     string       `json:"license,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Screenshots []string     `json:"screenshots,omitempty"`
	APIVersion  string       `json:"apiVersion,omitempty"`
}

// Clone returns a deep copy of the manifest. Registry reads hand out
// clones so callers can never mutate stored state through the result.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	out := *m
	if m.Permissions != nil {
		out.Permissions = make([]Permission, len(m.Permissions))
		copy(out.Permissions, m.Permissions)
	}
	if m.Engines != nil {
		engines := *m.Engines
		out.Engines = &engines
	}
	if m.Keywords != nil {
		out.Keywords = make([]string, len(m.Keywords))
		copy(out.Keywords, m.Keywords)
	}
	if m.Screenshots != nil {
		out.Screenshots = make([]string, len(m.Screenshots))
		copy(out.Screenshots, m.Screenshots)
	}
	return &out
}

// HasPermission reports whether the manifest declares the permission
func (m *Manifest) HasPermission(perm Permission) bool {
	for _, p := range m.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// ConnectionInfo is the public, redacted projection of the host's
// active database connection. The metadata store holds a copy, never a
// live reference, so plugins cannot observe or mutate host-internal
// connection objects.
type ConnectionInfo struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Encrypted bool   `json:"encrypted"`
	ReadOnly  bool   `json:"readOnly"`
}

// Clone returns a copy of the connection info
func (c *ConnectionInfo) Clone() *ConnectionInfo {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// AppInfo holds immutable per-process application facts
type AppInfo struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Arch     string `json:"arch"`
	DevMode  bool   `json:"devMode"`
}

// DiscoveredPlugin represents a plugin package found during discovery
type DiscoveredPlugin struct {
	ID           string
	Path         string
	Source       PluginSource
	ManifestPath string
}

// PluginSource indicates where a plugin was discovered
type PluginSource string

const (
	SourceBuiltin PluginSource = "builtin"
	SourceUser    PluginSource = "user"
	SourceExtra   PluginSource = "extra"
)

// DiscoveryConfig configures plugin discovery
type DiscoveryConfig struct {
	BuiltinDir string
	UserDir    string
	ExtraDirs  []string
}

// InstallResult contains the results of installing a batch of plugins
type InstallResult struct {
	Installed []string         // Successfully registered plugin IDs
	Failed    []string         // Failed plugin IDs
	Errors    map[string]error // Errors by plugin ID
}
