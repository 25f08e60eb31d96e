// Package config loads the interpreter's optional TOML configuration file,
// grounded on the teacher's config package (config/config.go): the same
// struct-of-sections layout, XDG-ish default path resolution, and
// load-falls-back-to-defaults behavior, retargeted from ARM-emulator
// settings to this ISA's interactive interpreter (spec §6, SPEC_FULL §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds defaults the CLI flags may override.
type Config struct {
	Execution struct {
		DefaultModel string `toml:"default_model"` // SC, TSO or PSO
	} `toml:"execution"`

	Interactive struct {
		HistorySize int  `toml:"history_size"`
		ShowSource  bool `toml:"show_source"`
	} `toml:"interactive"`

	Display struct {
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
	} `toml:"trace"`

	Statistics struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
	} `toml:"statistics"`
}

// DefaultConfig returns a Config with the interpreter's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Execution.DefaultModel = "SC"
	cfg.Interactive.HistorySize = 1000
	cfg.Interactive.ShowSource = true
	cfg.Display.NumberFormat = "dec"
	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	cfg.Statistics.Enabled = false
	cfg.Statistics.OutputFile = "stats.json"
	return cfg
}

// FormatValue renders v the way the Display.NumberFormat setting asks for:
// "hex" prints a 0x-prefixed hexadecimal value, anything else (including
// the default "dec") prints plain decimal.
func FormatValue(format string, v int64) string {
	if format == "hex" {
		if v < 0 {
			return fmt.Sprintf("-0x%x", -v)
		}
		return fmt.Sprintf("0x%x", v)
	}
	return fmt.Sprintf("%d", v)
}

// GetConfigPath returns the platform-specific default config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "isa-interpreter")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "isa-interpreter")

	default:
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default path, falling back silently to
// DefaultConfig when no file exists.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults when
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
