// Package config loads resto's YAML settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// AppName names the config and data directories.
const AppName = "resto"

// Config holds the application configuration.
type Config struct {
	Request RequestConfig `yaml:"request"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// RequestConfig controls how requests are sent.
type RequestConfig struct {
	// Timeout applies to every request unless overridden.
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	FollowRedirects bool          `yaml:"follow_redirects"`
	InsecureTLS     bool          `yaml:"insecure_tls"`
}

// HistoryConfig controls the request history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Limit is the number of entries kept; 0 keeps everything.
	Limit int `yaml:"limit"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dataDir := DataDir()

	return Config{
		Request: RequestConfig{
			Timeout:         30 * time.Second,
			UserAgent:       "resto HTTP Client/1.0",
			FollowRedirects: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
			Limit:   500,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "resto.log"),
		},
	}
}

// ConfigOption is a function that modifies the Config.
type ConfigOption func(*Config)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Request.Timeout = d
	}
}

// WithHistory enables or disables the request history.
func WithHistory(enabled bool) ConfigOption {
	return func(c *Config) {
		c.History.Enabled = enabled
	}
}

// WithInsecureTLS enables or disables certificate verification.
func WithInsecureTLS(insecure bool) ConfigOption {
	return func(c *Config) {
		c.Request.InsecureTLS = insecure
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.Log.Level = level
	}
}

// Apply returns a copy with the options applied.
func (c Config) Apply(opts ...ConfigOption) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks the values a user can get wrong.
func (c Config) Validate() error {
	if c.Request.Timeout <= 0 {
		return fmt.Errorf("request.timeout must be positive, got %s", c.Request.Timeout)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Load reads the file at path over the defaults. An empty path means the
// default location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/resto/config.yaml, falling back to the
// platform config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir, _ = os.UserConfigDir()
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

// DataDir is $XDG_DATA_HOME/resto, falling back to ~/.local/share/resto.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
