package plugin

import (
	"fmt"
	"sync"
)

// MenuItem is a menu entry contributed by a plugin
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Menu  string `json:"menu,omitempty"` // parent menu, defaults to Plugins
}

// Panel is a side panel contributed by a plugin
type Panel struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// Command is a command-palette entry contributed by a plugin
type Command struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type contribution[T any] struct {
	PluginID   string
	Definition T
}

// UIRegistry tracks UI contributions per plugin so the host can render
// them and tear them down when a plugin unloads.
type UIRegistry struct {
	menuItems map[string]*contribution[MenuItem]
	panels    map[string]*contribution[Panel]
	commands  map[string]*contribution[Command]
	mu        sync.RWMutex
}

// NewUIRegistry creates a new UI contribution registry
func NewUIRegistry() *UIRegistry {
	return &UIRegistry{
		menuItems: make(map[string]*contribution[MenuItem]),
		panels:    make(map[string]*contribution[Panel]),
		commands:  make(map[string]*contribution[Command]),
	}
}

// RegisterMenuItem registers a menu item for a plugin
func (r *UIRegistry) RegisterMenuItem(pluginID string, item MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item ID cannot be empty")
	}
	if item.Label == "" {
		return fmt.Errorf("menu item label cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.menuItems[item.ID]; exists {
		return fmt.Errorf("menu item %q already registered", item.ID)
	}
	r.menuItems[item.ID] = &contribution[MenuItem]{PluginID: pluginID, Definition: item}
	return nil
}

// RegisterPanel registers a panel for a plugin
func (r *UIRegistry) RegisterPanel(pluginID string, panel Panel) error {
	if panel.ID == "" {
		return fmt.Errorf("panel ID cannot be empty")
	}
	if panel.Title == "" {
		return fmt.Errorf("panel title cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.panels[panel.ID]; exists {
		return fmt.Errorf("panel %q already registered", panel.ID)
	}
	r.panels[panel.ID] = &contribution[Panel]{PluginID: pluginID, Definition: panel}
	return nil
}

// RegisterCommand registers a command for a plugin
func (r *UIRegistry) RegisterCommand(pluginID string, cmd Command) error {
	if cmd.ID == "" {
		return fmt.Errorf("command ID cannot be empty")
	}
	if cmd.Title == "" {
		return fmt.Errorf("command title cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.ID]; exists {
		return fmt.Errorf("command %q already registered", cmd.ID)
	}
	r.commands[cmd.ID] = &contribution[Command]{PluginID: pluginID, Definition: cmd}
	return nil
}

// MenuItemsByPlugin returns the menu items a plugin has registered
func (r *UIRegistry) MenuItemsByPlugin(pluginID string) []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []MenuItem
	for _, c := range r.menuItems {
		if c.PluginID == pluginID {
			items = append(items, c.Definition)
		}
	}
	return items
}

// PanelsByPlugin returns the panels a plugin has registered
func (r *UIRegistry) PanelsByPlugin(pluginID string) []Panel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var panels []Panel
	for _, c := range r.panels {
		if c.PluginID == pluginID {
			panels = append(panels, c.Definition)
		}
	}
	return panels
}

// CommandsByPlugin returns the commands a plugin has registered
func (r *UIRegistry) CommandsByPlugin(pluginID string) []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cmds []Command
	for _, c := range r.commands {
		if c.PluginID == pluginID {
			cmds = append(cmds, c.Definition)
		}
	}
	return cmds
}

// UnregisterByPlugin removes every contribution a plugin has made and
// returns the removed contribution IDs.
func (r *UIRegistry) UnregisterByPlugin(pluginID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, c := range r.menuItems {
		if c.PluginID == pluginID {
			delete(r.menuItems, id)
			removed = append(removed, id)
		}
	}
	for id, c := range r.panels {
		if c.PluginID == pluginID {
			delete(r.panels, id)
			removed = append(removed, id)
		}
	}
	for id, c := range r.commands {
		if c.PluginID == pluginID {
			delete(r.commands, id)
			removed = append(removed, id)
		}
	}
	return removed
}
