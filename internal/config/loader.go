package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "aishell"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs      FileSystem
	environ func() []string
	path    string
}

// NewLoader creates a production Loader using the real filesystem and environment
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}, environ: os.Environ}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment (for testing)
func NewLoaderWithFS(fs FileSystem, environ []string) *Loader {
	return &Loader{fs: fs, environ: func() []string { return environ }}
}

// WithPath makes the loader read an explicit config file instead of
// ~/.config/aishell/config.json. A missing explicit file is an error.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Load reads configuration from ~/.config/aishell/config.json, merges it with
// defaults, then applies environment overrides. Returns default config if
// the dotfile doesn't exist.
// Returns error only for parse errors, permission issues, or validation failures.
//
// NOTE: This implementation unmarshals JSON keys directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file to override defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.loadFile(cfg); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(l.environ())}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	configPath := l.path
	explicit := configPath != ""
	if !explicit {
		homeDir, err := l.fs.UserHomeDir()
		if err != nil {
			return nil // Use defaults if can't get home dir
		}
		configPath = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
	}

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil // Use defaults if file doesn't exist
		}
		return err
	}

	// Present keys overwrite defaults (even if zero), missing keys leave the
	// defaults untouched.
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return nil
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
