// Package config provides configuration management for roadviz.
//
// Config file locations (priority order):
//  1. $ROADVIZ_CONFIG
//  2. ./roadviz.yaml
//  3. $XDG_CONFIG_HOME/roadviz/config.yaml
//  4. ~/.config/roadviz/config.yaml
//  5. /etc/roadviz/config.yaml
//
// $ROADVIZ_LOG_LEVEL and $ROADVIZ_DB override the file. Command-line flags
// override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	cfg.applyEnv()

	return cfg, path, nil
}

// Parse decodes YAML config data and fills in defaults
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPalette returns the stock colors: a dark blue gradient, grey roads,
// blue visited nodes and a yellow active node.
func DefaultPalette() PaletteConfig {
	return PaletteConfig{
		BackgroundBottom: RGB{0.1, 0.1, 0.3},
		BackgroundTop:    RGB{0, 0, 0},
		Edge:             RGB{0.7, 0.7, 0.7},
		Node:             RGB{0.3, 0.3, 0.3},
		Visited:          RGB{0, 0, 1},
		Active:           RGB{1, 1, 0},
		Route:            RGB{1, 0, 0},
	}
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Traversal: TraversalConfig{
			Interval: Duration(5 * time.Millisecond),
		},
		Render: RenderConfig{
			Mode:       ModeAuto,
			Title:      "Road Network Traversal",
			Width:      1024,
			Height:     768,
			PointSize:  5,
			PulseGain:  0.3,
			EdgeWidth:  1.5,
			RouteWidth: 3,
			HUD:        true,
			Palette:    DefaultPalette(),
		},
		Pulse: PulseConfig{Accelerated: true},
		Observer: ObserverConfig{
			Addr:       "127.0.0.1:8470",
			SSE:        true,
			WebSocket:  true,
			Metrics:    true,
			ConsoleLog: true,
		},
		Database: DatabaseConfig{Path: "./roadviz.db"},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: time.RFC3339,
		},
		Capabilities: DefaultCapabilities(),
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = 1
	}
	if c.Render.Mode == "" {
		c.Render.Mode = ModeAuto
	}
	if c.Render.Width <= 0 {
		c.Render.Width = def.Render.Width
	}
	if c.Render.Height <= 0 {
		c.Render.Height = def.Render.Height
	}
	if c.Render.PointSize <= 0 {
		c.Render.PointSize = def.Render.PointSize
	}
	if c.Render.EdgeWidth <= 0 {
		c.Render.EdgeWidth = def.Render.EdgeWidth
	}
	if c.Render.RouteWidth <= 0 {
		c.Render.RouteWidth = def.Render.RouteWidth
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Log.TimeFormat == "" {
		c.Log.TimeFormat = def.Log.TimeFormat
	}

	// Ensure core capabilities are always enabled
	c.Capabilities.Core.Traversal.Enabled = true
	c.Capabilities.Core.SoftwareRender.Enabled = true
}

// applyEnv applies environment overrides
func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if path := os.Getenv(EnvDatabasePath); path != "" {
		c.Database.Path = path
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	var problems []string

	if c.Traversal.Interval < 0 {
		problems = append(problems, "traversal.interval must not be negative")
	}
	if c.Render.PulseGain < 0 || c.Render.PulseGain >= 1 {
		problems = append(problems, "render.pulse_gain must be in [0, 1)")
	}
	switch c.Render.Mode {
	case ModeAuto, ModeWindow, ModeHeadless:
	default:
		problems = append(problems, fmt.Sprintf("render.mode %q is not auto, window or headless", c.Render.Mode))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not supported", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}
	if c.Log.Output == "file" && c.Log.File == "" {
		problems = append(problems, "log.file is required when log.output is file")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// EffectiveMode returns the render mode to use (override > recommendation > headless)
func (c *Config) EffectiveMode() Mode {
	// Explicit override takes precedence
	if c.Render.Mode == ModeWindow || c.Render.Mode == ModeHeadless {
		return c.Render.Mode
	}

	// Use bootstrap recommendation if available
	if c.Bootstrap != nil && c.Bootstrap.Recommendation.Mode != "" {
		return c.Bootstrap.Recommendation.Mode
	}

	return ModeHeadless
}

// NeedsBootstrap returns true if bootstrap should run
func (c *Config) NeedsBootstrap() bool {
	return c.Render.Mode == ModeAuto && c.Bootstrap == nil
}

// SetBootstrapResult updates the config with bootstrap findings
func (c *Config) SetBootstrapResult(result *BootstrapResult) {
	c.Bootstrap = result
}

// ModeExceedsRecommendation returns true if mode override exceeds recommendation
func (c *Config) ModeExceedsRecommendation() bool {
	if c.Render.Mode == ModeAuto || c.Bootstrap == nil {
		return false
	}
	return c.Render.Mode.Level() > c.Bootstrap.Recommendation.Mode.Level()
}

// GetEnabledCapabilities returns list of capabilities enabled for current mode
func (c *Config) GetEnabledCapabilities() []CapabilityInfo {
	mode := c.EffectiveMode()
	var enabled []CapabilityInfo

	for _, cap := range c.Capabilities.ListCapabilities() {
		if cap.Enabled && mode.Allows(cap.MinMode) {
			enabled = append(enabled, cap)
		}
	}

	return enabled
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	mode := c.EffectiveMode()
	caps := c.GetEnabledCapabilities()

	summary := fmt.Sprintf("Mode: %s, Viewport: %dx%d\n", mode, c.Render.Width, c.Render.Height)
	summary += fmt.Sprintf("Step interval: %s, Accelerated pulse: %v\n",
		c.Traversal.Interval.Duration(), c.Pulse.Accelerated)
	summary += fmt.Sprintf("Enabled capabilities (%d):", len(caps))
	for _, cap := range caps {
		summary += fmt.Sprintf(" %s", cap.Name)
	}

	return summary
}

// NewBootstrapResult creates a BootstrapResult with the current timestamp
func NewBootstrapResult() *BootstrapResult {
	return &BootstrapResult{
		Timestamp: time.Now(),
	}
}
