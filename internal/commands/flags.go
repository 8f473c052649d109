package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/tend/internal/core/config"
)

// Flags holds the global flag values shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Remote overrides remote.base_url from the config file when set.
	Remote string

	// Config is loaded in the Before hook.
	Config *config.Config
}

// DefaultConfigPath is $XDG_CONFIG_HOME/tend/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "tend", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/tend. It holds the log file and the
// reference server's database.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "tend")
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}
