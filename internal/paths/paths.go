// Package paths resolves configuration and data directory locations for the
// Foreman store.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory name holding the per-project database file.
const DefaultDataDirName = ".foreman"

// DatabaseFileName is the well-known name of the single database file
// inside the data directory.
const DatabaseFileName = "foreman.db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FOREMAN_CONFIG_DIR"
	EnvDataDir   = "FOREMAN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/foreman (fallback ~/.config/foreman)
// macOS:   ~/Library/Application Support/foreman
// Windows: %APPDATA%/foreman
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "foreman"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "foreman"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "foreman"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: explicit override > FOREMAN_CONFIG_DIR env > platform
// default.
func ResolveConfigDir(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// explicit override > FOREMAN_DATA_DIR env > config file value > CWD-relative
// default ($(CWD)/.foreman). The env var outranks config.yaml so a
// deployment that wrote data_dir into its config can still be repointed per
// process. Every caller of one project resolves the same directory, so
// independent processes share one database file.
func ResolveDataDir(override, configValue string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DatabaseFile returns the well-known path of the project database inside
// dataDir.
func DatabaseFile(dataDir string) string {
	return filepath.Join(dataDir, DatabaseFileName)
}
