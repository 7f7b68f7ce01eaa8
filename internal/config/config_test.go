package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestModeLevel(t *testing.T) {
	tests := []struct {
		mode  Mode
		level int
	}{
		{ModeHeadless, 0},
		{ModeWindow, 1},
	}

	for _, tt := range tests {
		if got := tt.mode.Level(); got != tt.level {
			t.Errorf("Mode(%s).Level() = %d, want %d", tt.mode, got, tt.level)
		}
	}
}

func TestModeAllows(t *testing.T) {
	tests := []struct {
		current  Mode
		required Mode
		allowed  bool
	}{
		{ModeWindow, ModeHeadless, true},
		{ModeWindow, ModeWindow, true},
		{ModeHeadless, ModeHeadless, true},
		{ModeHeadless, ModeWindow, false},
	}

	for _, tt := range tests {
		if got := tt.current.Allows(tt.required); got != tt.allowed {
			t.Errorf("Mode(%s).Allows(%s) = %v, want %v",
				tt.current, tt.required, got, tt.allowed)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"window", ModeWindow},
		{"headless", ModeHeadless},
		{"auto", ModeAuto},
		{"invalid", ModeAuto}, // Default
	}

	for _, tt := range tests {
		if got := ParseMode(tt.input); got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Traversal.Interval.Duration() != 5*time.Millisecond {
		t.Errorf("Traversal.Interval = %s, want 5ms", cfg.Traversal.Interval.Duration())
	}
	if cfg.Render.PointSize != 5 || cfg.Render.PulseGain != 0.3 {
		t.Errorf("point size/gain = %v/%v, want 5/0.3", cfg.Render.PointSize, cfg.Render.PulseGain)
	}
	if cfg.Render.Palette.Active != (RGB{1, 1, 0}) {
		t.Errorf("Palette.Active = %v, want yellow", cfg.Render.Palette.Active)
	}
	if cfg.Render.Palette.BackgroundBottom != (RGB{0.1, 0.1, 0.3}) {
		t.Errorf("Palette.BackgroundBottom = %v", cfg.Render.Palette.BackgroundBottom)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
render:
  width: 640
  palette:
    visited: [0, 1, 0]
traversal:
  interval: 20ms
  seed: 9
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Render.Width != 640 {
		t.Errorf("Render.Width = %d, want 640", cfg.Render.Width)
	}
	if cfg.Render.Height != 768 {
		t.Errorf("Render.Height = %d, want default 768", cfg.Render.Height)
	}
	if cfg.Render.Palette.Visited != (RGB{0, 1, 0}) {
		t.Errorf("Palette.Visited = %v, want green", cfg.Render.Palette.Visited)
	}
	if cfg.Render.Palette.Active != (RGB{1, 1, 0}) {
		t.Errorf("Palette.Active = %v, want default yellow", cfg.Render.Palette.Active)
	}
	if cfg.Traversal.Interval.Duration() != 20*time.Millisecond {
		t.Errorf("Traversal.Interval = %s, want 20ms", cfg.Traversal.Interval.Duration())
	}
	if cfg.Traversal.Seed == nil || *cfg.Traversal.Seed != 9 {
		t.Errorf("Traversal.Seed = %v, want 9", cfg.Traversal.Seed)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative interval", func(c *Config) { c.Traversal.Interval = Duration(-time.Second) }},
		{"pulse gain too large", func(c *Config) { c.Render.PulseGain = 1 }},
		{"unknown mode", func(c *Config) { c.Render.Mode = "vr" }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
		{"file output without file", func(c *Config) { c.Log.Output = "file" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Render.Mode = ModeWindow
		cfg.Bootstrap = &BootstrapResult{Recommendation: ModeRecommendation{Mode: ModeHeadless}}

		if got := cfg.EffectiveMode(); got != ModeWindow {
			t.Errorf("EffectiveMode() = %s, want window", got)
		}
		if !cfg.ModeExceedsRecommendation() {
			t.Error("ModeExceedsRecommendation() should be true")
		}
	})

	t.Run("auto follows recommendation", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Bootstrap = &BootstrapResult{Recommendation: ModeRecommendation{Mode: ModeWindow}}

		if got := cfg.EffectiveMode(); got != ModeWindow {
			t.Errorf("EffectiveMode() = %s, want window", got)
		}
		if cfg.NeedsBootstrap() {
			t.Error("NeedsBootstrap() should be false with a result")
		}
	})

	t.Run("auto without recommendation is headless", func(t *testing.T) {
		cfg := DefaultConfig()

		if got := cfg.EffectiveMode(); got != ModeHeadless {
			t.Errorf("EffectiveMode() = %s, want headless", got)
		}
		if !cfg.NeedsBootstrap() {
			t.Error("NeedsBootstrap() should be true")
		}
	})
}

func TestCapabilitiesIsEnabled(t *testing.T) {
	caps := DefaultCapabilities()

	if !caps.IsEnabled("traversal", ModeHeadless) {
		t.Error("traversal should be enabled in headless mode")
	}
	if caps.IsEnabled("window", ModeHeadless) {
		t.Error("window should not be enabled in headless mode")
	}
	if !caps.IsEnabled("accelerated_pulse", ModeWindow) {
		t.Error("accelerated_pulse should be enabled in window mode")
	}
	if caps.IsEnabled("tui", ModeWindow) {
		t.Error("tui should not be enabled (disabled by default)")
	}
	if caps.IsEnabled("teleport", ModeWindow) {
		t.Error("unknown capability should not be enabled")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Render.Mode = ModeHeadless
	cfg.Graph.Path = "/data/roads.geojson"
	cfg.Pulse.Accelerated = false

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Render.Mode != ModeHeadless {
		t.Errorf("Render.Mode = %s, want headless", loaded.Render.Mode)
	}
	if loaded.Graph.Path != "/data/roads.geojson" {
		t.Errorf("Graph.Path = %s", loaded.Graph.Path)
	}
	if loaded.Pulse.Accelerated {
		t.Error("Pulse.Accelerated should stay false")
	}
	if loaded.Traversal.Interval.Duration() != 5*time.Millisecond {
		t.Errorf("Traversal.Interval = %s, want 5ms", loaded.Traversal.Interval.Duration())
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := DefaultConfig().Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvDatabasePath, "/tmp/other.db")

	loaded, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loaded.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", loaded.Log.Level)
	}
	if loaded.Database.Path != "/tmp/other.db" {
		t.Errorf("Database.Path = %s, want /tmp/other.db", loaded.Database.Path)
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Set working directory to temp
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Should find config in working directory
	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Existing explicit path wins
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found = FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Run("env first and system last", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/srv/roadviz.yaml")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")

		locs := SearchPaths()
		want := []SearchLocation{
			{Path: "/srv/roadviz.yaml", Origin: "env"},
			{Path: ConfigFileName, Origin: "workdir"},
			{Path: filepath.Join("/xdg", "roadviz", "config.yaml"), Origin: "xdg"},
			{Path: filepath.Join("/etc", "roadviz", "config.yaml"), Origin: "system"},
		}
		if len(locs) != len(want) {
			t.Fatalf("SearchPaths() = %v, want %v", locs, want)
		}
		for i := range want {
			if locs[i] != want[i] {
				t.Errorf("SearchPaths()[%d] = %v, want %v", i, locs[i], want[i])
			}
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/ada")

		locs := SearchPaths()
		if len(locs) != 3 {
			t.Fatalf("SearchPaths() = %v, want 3 locations", locs)
		}
		if locs[1].Origin != "home" || locs[1].Path != filepath.Join("/home/ada", ".config", "roadviz", "config.yaml") {
			t.Errorf("SearchPaths()[1] = %v", locs[1])
		}
		if got := DefaultConfigPath(); got != locs[1].Path {
			t.Errorf("DefaultConfigPath() = %s, want %s", got, locs[1].Path)
		}
	})

	t.Run("no home uses working directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "")
		if got := DefaultConfigPath(); got != ConfigFileName {
			t.Errorf("DefaultConfigPath() = %s, want %s", got, ConfigFileName)
		}
	})
}

func TestFindConfigPathSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "empty"))

	oldWd, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(oldWd)

	if found := FindConfigPath(); found == dir {
		t.Errorf("FindConfigPath() returned directory %s", found)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	// Test YAML marshaling
	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
