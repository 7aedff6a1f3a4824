// Package paths resolves configuration and data directory locations.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// AppName names the per-user configuration and data directories.
const AppName = "pocketbook"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "POCKET_CONFIG_DIR"
	EnvDataDir   = "POCKET_DATA_DIR"
)

// Env holds the directory overrides read from the environment.
type Env struct {
	ConfigDir string `env:"POCKET_CONFIG_DIR"`
	DataDir   string `env:"POCKET_DATA_DIR"`
}

// LoadEnv reads the directory overrides from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

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
// Linux:   $XDG_CONFIG_HOME/pocketbook (fallback ~/.config/pocketbook)
// macOS:   ~/Library/Application Support/pocketbook
// Windows: %APPDATA%/pocketbook
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/pocketbook (fallback ~/.local/share/pocketbook)
// macOS:   ~/Library/Application Support/pocketbook
// Windows: %APPDATA%/pocketbook
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > POCKET_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	e, err := LoadEnv()
	if err != nil {
		return "", err
	}
	if e.ConfigDir != "" {
		return filepath.Abs(e.ConfigDir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > POCKET_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	e, err := LoadEnv()
	if err != nil {
		return "", err
	}
	if e.DataDir != "" {
		return filepath.Abs(e.DataDir)
	}
	return DefaultDataDir()
}
