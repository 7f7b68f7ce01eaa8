package config

// CapabilityType distinguishes built-in from optional capabilities
type CapabilityType string

const (
	CapabilityTypeCore   CapabilityType = "core"   // Compiled in, always available
	CapabilityTypePlugin CapabilityType = "plugin" // Optional, depends on the environment
)

// CapabilityConfig defines settings for a single capability
type CapabilityConfig struct {
	Enabled bool `yaml:"enabled"`
	MinMode Mode `yaml:"min_mode,omitempty"` // Minimum mode required
}

// CoreCapabilities defines the built-in capabilities
type CoreCapabilities struct {
	Traversal      CapabilityConfig `yaml:"traversal"`
	SoftwareRender CapabilityConfig `yaml:"software_render"`
	GraphStore     CapabilityConfig `yaml:"graph_store"`
}

// PluginCapabilities defines optional capabilities
type PluginCapabilities struct {
	Window           CapabilityConfig `yaml:"window"`
	AcceleratedPulse CapabilityConfig `yaml:"accelerated_pulse"`
	HTTPObserver     CapabilityConfig `yaml:"http_observer"`
	TUI              CapabilityConfig `yaml:"tui"`
}

// CapabilitiesConfig holds all capability settings
type CapabilitiesConfig struct {
	Core    CoreCapabilities   `yaml:"core"`
	Plugins PluginCapabilities `yaml:"plugins"`
}

// DefaultCapabilities returns the default capability configuration
func DefaultCapabilities() CapabilitiesConfig {
	return CapabilitiesConfig{
		Core: CoreCapabilities{
			Traversal:      CapabilityConfig{Enabled: true},
			SoftwareRender: CapabilityConfig{Enabled: true},
			GraphStore:     CapabilityConfig{Enabled: true},
		},
		Plugins: PluginCapabilities{
			Window: CapabilityConfig{
				Enabled: true,
				MinMode: ModeWindow,
			},
			AcceleratedPulse: CapabilityConfig{
				Enabled: true, // Falls back to CPU when the shader fails
				MinMode: ModeWindow,
			},
			HTTPObserver: CapabilityConfig{
				Enabled: true,
				MinMode: ModeHeadless,
			},
			TUI: CapabilityConfig{
				Enabled: false, // Needs an interactive terminal
				MinMode: ModeHeadless,
			},
		},
	}
}

// CapabilityInfo provides runtime info about a capability
type CapabilityInfo struct {
	Name        string         `json:"name"`
	Type        CapabilityType `json:"type"`
	Enabled     bool           `json:"enabled"`
	Available   bool           `json:"available"`
	MinMode     Mode           `json:"min_mode"`
	Description string         `json:"description"`
}

// ListCapabilities returns info about all capabilities
func (c *CapabilitiesConfig) ListCapabilities() []CapabilityInfo {
	return []CapabilityInfo{
		// Core capabilities
		{
			Name:        "traversal",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.Traversal.Enabled,
			Available:   true,
			MinMode:     ModeHeadless,
			Description: "Background traversal publishing snapshots",
		},
		{
			Name:        "software_render",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.SoftwareRender.Enabled,
			Available:   true,
			MinMode:     ModeHeadless,
			Description: "CPU rasterizer for PNG frames",
		},
		{
			Name:        "graph_store",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.GraphStore.Enabled,
			Available:   true,
			MinMode:     ModeHeadless,
			Description: "SQLite store for graphs and runs",
		},
		// Plugin capabilities
		{
			Name:        "window",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.Window.Enabled,
			Available:   true, // Checked by bootstrap
			MinMode:     c.Plugins.Window.MinMode,
			Description: "Interactive window with pan and zoom",
		},
		{
			Name:        "accelerated_pulse",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.AcceleratedPulse.Enabled,
			Available:   true, // Probed at startup, CPU fallback otherwise
			MinMode:     c.Plugins.AcceleratedPulse.MinMode,
			Description: "Pulse value computed by a GPU shader",
		},
		{
			Name:        "http_observer",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.HTTPObserver.Enabled,
			Available:   true,
			MinMode:     c.Plugins.HTTPObserver.MinMode,
			Description: "SSE, websocket and metrics endpoints",
		},
		{
			Name:        "tui",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.TUI.Enabled,
			Available:   true,
			MinMode:     c.Plugins.TUI.MinMode,
			Description: "Terminal progress display",
		},
	}
}

// IsEnabled checks if a capability is enabled and available for the given mode
func (c *CapabilitiesConfig) IsEnabled(name string, currentMode Mode) bool {
	for _, cap := range c.ListCapabilities() {
		if cap.Name == name {
			return cap.Enabled && cap.Available && currentMode.Allows(cap.MinMode)
		}
	}
	return false
}
