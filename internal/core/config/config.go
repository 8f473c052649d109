// Package config handles configuration loading and validation for tend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/tend/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Remote   RemoteConfig   `yaml:"remote"`
	Engine   EngineConfig   `yaml:"engine"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	UI       UIConfig       `yaml:"ui"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// RemoteConfig configures the HTTP client for the remote todo store.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // per request
}

// EngineConfig tunes the command engine.
type EngineConfig struct {
	// MarkAllConcurrency bounds concurrent remote calls when completing every
	// todo. 1 is sequential.
	MarkAllConcurrency int `yaml:"mark_all_concurrency"`
}

// ServerConfig configures the reference server started by `tend serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the SQLite database used by the reference server.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// UIConfig configures CLI output.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// MaxMarkAllConcurrency caps engine.mark_all_concurrency.
const MaxMarkAllConcurrency = 64

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL: "http://127.0.0.1:3001",
			Timeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			MarkAllConcurrency: 1,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:3001",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		UI: UIConfig{
			Theme: styles.DefaultTheme,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaults.Remote.BaseURL
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = defaults.Remote.Timeout
	}
	if c.Engine.MarkAllConcurrency == 0 {
		c.Engine.MarkAllConcurrency = defaults.Engine.MarkAllConcurrency
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// DatabaseFile returns the path to the reference server's SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "tend.db")
}
