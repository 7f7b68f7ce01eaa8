package config

import (
	"os"
	"path/filepath"
)

// Environment variables read by roadviz. The CLI loads a .env file into the
// process environment before Load runs, so these may be set there too.
const (
	// EnvConfigPath names a config file that wins over every search location
	EnvConfigPath = "ROADVIZ_CONFIG"
	// EnvLogLevel overrides log.level
	EnvLogLevel = "ROADVIZ_LOG_LEVEL"
	// EnvDatabasePath overrides database.path, the SQLite file holding graphs and runs
	EnvDatabasePath = "ROADVIZ_DB"
)

const (
	// ConfigFileName is looked up in the working directory, next to roadviz.db
	ConfigFileName = "roadviz.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "roadviz"

	userConfigFile = "config.yaml"
)

// SearchLocation is one place a config file may live
type SearchLocation struct {
	Path   string
	Origin string // env, workdir, xdg, home or system
}

// SearchPaths lists the config locations in the order FindConfigPath
// tries them. Locations whose variables are unset are left out.
func SearchPaths() []SearchLocation {
	var locs []SearchLocation
	if path := os.Getenv(EnvConfigPath); path != "" {
		locs = append(locs, SearchLocation{Path: path, Origin: "env"})
	}
	locs = append(locs, SearchLocation{Path: ConfigFileName, Origin: "workdir"})
	if dir := userConfigDir(); dir != "" {
		origin := "home"
		if os.Getenv("XDG_CONFIG_HOME") != "" {
			origin = "xdg"
		}
		locs = append(locs, SearchLocation{Path: filepath.Join(dir, ConfigDirName, userConfigFile), Origin: origin})
	}
	return append(locs, SearchLocation{Path: filepath.Join("/etc", ConfigDirName, userConfigFile), Origin: "system"})
}

// FindConfigPath returns the first existing file from SearchPaths, or ""
// when there is none and defaults apply. A file found in the working
// directory is returned as an absolute path.
func FindConfigPath() string {
	for _, loc := range SearchPaths() {
		if !fileExists(loc.Path) {
			continue
		}
		if loc.Origin == "workdir" {
			if abs, err := filepath.Abs(loc.Path); err == nil {
				return abs
			}
		}
		return loc.Path
	}
	return ""
}

// DefaultConfigPath is where `roadviz config init` and `roadviz probe --save`
// write when no path is given: the per-user directory, or the working
// directory when HOME is unset.
func DefaultConfigPath() string {
	if dir := userConfigDir(); dir != "" {
		return filepath.Join(dir, ConfigDirName, userConfigFile)
	}
	return ConfigFileName
}

// userConfigDir is $XDG_CONFIG_HOME, then ~/.config
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config")
	}
	return ""
}

// EnsureConfigDir creates the parent directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
