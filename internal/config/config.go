package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Scan  ScanConfig        `yaml:"scan"`
	Log   LogConfig         `yaml:"log"`
	UUIDs map[string]string `yaml:"uuids"` // extra registry names, UUID -> meaning
}

// ScanConfig holds device discovery settings.
type ScanConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig holds session log settings.
type LogConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	Ext    string `yaml:"ext"`
	Level  string `yaml:"level"`
	Color  bool   `yaml:"color"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "blenumerator")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Dir:    ".",
			Prefix: "ble_dump",
			Ext:    "txt",
			Level:  "info",
			Color:  true,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in log.dir is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Log.Dir = expandTilde(cfg.Log.Dir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be > 0, got %s", c.Scan.Timeout)
	}

	if c.Log.Dir == "" {
		return fmt.Errorf("log.dir must not be empty")
	}

	if c.Log.Prefix == "" || strings.ContainsAny(c.Log.Prefix, `/\`) {
		return fmt.Errorf("log.prefix must be a non-empty file name prefix, got %q", c.Log.Prefix)
	}

	if c.Log.Ext == "" || strings.ContainsAny(c.Log.Ext, `./\`) {
		return fmt.Errorf("log.ext must be a bare extension like \"txt\", got %q", c.Log.Ext)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	for id, name := range c.UUIDs {
		if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("uuids entries must have a UUID and a name, got %q: %q", id, name)
		}
	}

	return nil
}

// SlogLevel maps log.level onto a slog level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
