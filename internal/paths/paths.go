// Package paths resolves where cvtracker keeps its configuration and its
// local data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform base directories.
const AppName = "cvtracker"

// Environment variables that override the platform defaults.
const (
	EnvConfigDir = "CVTRACKER_CONFIG_DIR"
	EnvDataDir   = "CVTRACKER_DATA_DIR"
)

// Files inside the configuration directory.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// platformDir can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdg returns $env/cvtracker, or home/fallback.../cvtracker when env is
// unset.
func xdg(env string, fallback ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

func userDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/cvtracker (fallback ~/.config/cvtracker)
// macOS:   ~/Library/Application Support/cvtracker
// Windows: %APPDATA%/cvtracker
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdg("XDG_CONFIG_HOME", ".config")
	}
	return userDir()
}

// DefaultDataDir returns the platform data directory. Outside Linux it is
// the same as the configuration directory.
func DefaultDataDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdg("XDG_DATA_HOME", ".local", "share")
	}
	return userDir()
}

func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}

// ResolveConfigDir applies flag > CVTRACKER_CONFIG_DIR > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config file value > CVTRACKER_DATA_DIR >
// platform default.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	return DefaultDataDir()
}
