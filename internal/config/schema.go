package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version      int                `yaml:"version"`
	Bootstrap    *BootstrapResult   `yaml:"bootstrap,omitempty"`
	Graph        GraphConfig        `yaml:"graph"`
	Traversal    TraversalConfig    `yaml:"traversal"`
	Render       RenderConfig       `yaml:"render"`
	Pulse        PulseConfig        `yaml:"pulse"`
	Observer     ObserverConfig     `yaml:"observer"`
	Database     DatabaseConfig     `yaml:"database"`
	Log          LogConfig          `yaml:"log"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
}

// BootstrapResult stores the last environment probe (written by `roadviz probe --save`)
type BootstrapResult struct {
	Timestamp      time.Time          `yaml:"timestamp"`
	Environment    EnvironmentInfo    `yaml:"environment"`
	Display        DisplayInfo        `yaml:"display"`
	Resources      ResourceInfo       `yaml:"resources"`
	Recommendation ModeRecommendation `yaml:"recommendation"`
}

// EnvironmentInfo describes the execution environment
type EnvironmentInfo struct {
	Type       string  `yaml:"type"`       // bare_metal, container
	Runtime    string  `yaml:"runtime"`    // none, docker, kubernetes, podman
	Confidence float64 `yaml:"confidence"` // 0.0-1.0
}

// DisplayInfo describes the graphical session, if any
type DisplayInfo struct {
	Available bool   `yaml:"available"`
	Server    string `yaml:"server,omitempty"` // x11, wayland, native
}

// ResourceInfo describes available resources
type ResourceInfo struct {
	CPUCores     int    `yaml:"cpu_cores"`
	MemoryMB     int    `yaml:"memory_mb"`
	Architecture string `yaml:"architecture"`
	OS           string `yaml:"os"`
}

// ModeRecommendation is the bootstrap's suggested render mode
type ModeRecommendation struct {
	Mode       Mode     `yaml:"mode"`
	Confidence float64  `yaml:"confidence"`
	Reasons    []string `yaml:"reasons,omitempty"`
}

// GraphConfig selects the road network to load
type GraphConfig struct {
	Path   string `yaml:"path,omitempty"`   // file to load
	Format string `yaml:"format,omitempty"` // empty = infer from extension
	Name   string `yaml:"name,omitempty"`   // stored graph name, used when Path is empty
	Source string `yaml:"source,omitempty"` // empty = random node
}

// TraversalConfig controls the traversal worker
type TraversalConfig struct {
	Interval Duration `yaml:"interval"`
	Seed     *int64   `yaml:"seed,omitempty"` // nil = time-based seed
}

// RenderConfig holds viewport and drawing settings
type RenderConfig struct {
	Mode       Mode          `yaml:"mode"`
	Title      string        `yaml:"title"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	PointSize  float64       `yaml:"point_size"`
	PulseGain  float64       `yaml:"pulse_gain"`
	EdgeWidth  float64       `yaml:"edge_width"`
	RouteWidth float64       `yaml:"route_width"`
	HUD        bool          `yaml:"hud"`
	Palette    PaletteConfig `yaml:"palette"`
}

// RGB is a color with components in [0, 1]
type RGB [3]float64

// PaletteConfig holds the drawing colors
type PaletteConfig struct {
	BackgroundBottom RGB `yaml:"background_bottom"`
	BackgroundTop    RGB `yaml:"background_top"`
	Edge             RGB `yaml:"edge"`
	Node             RGB `yaml:"node"`
	Visited          RGB `yaml:"visited"`
	Active           RGB `yaml:"active"`
	Route            RGB `yaml:"route"`
}

// PulseConfig controls the animated pulse of the current node
type PulseConfig struct {
	Accelerated bool `yaml:"accelerated"`
}

// ObserverConfig controls who gets notified of each snapshot
type ObserverConfig struct {
	Addr       string `yaml:"addr"` // empty disables the HTTP observer
	SSE        bool   `yaml:"sse"`
	WebSocket  bool   `yaml:"websocket"`
	Metrics    bool   `yaml:"metrics"`
	ConsoleLog bool   `yaml:"console_log"`
	TUI        bool   `yaml:"tui"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // console, json
	Output     string `yaml:"output"` // stdout, stderr, file
	File       string `yaml:"file,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
