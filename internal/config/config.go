package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all oldnews configuration.
type Config struct {
	Sync SyncConfig `toml:"sync"`
	UI   UIConfig   `toml:"ui"`
}

// SyncConfig holds the tunables for synchronisation with the remote
// service.
type SyncConfig struct {
	// RetentionDays is how many days read articles are kept locally
	// before cleanup.
	RetentionDays int `toml:"retention_days"`
	// RefreshHoldoff is how many seconds must have passed since the
	// last sync before an automatic refresh is triggered on startup.
	RefreshHoldoff int `toml:"refresh_holdoff"`
	// PageSize is how many articles are requested per trip to the
	// remote service while streaming.
	PageSize int `toml:"page_size"`
}

// UIConfig holds TUI display settings.
type UIConfig struct {
	Theme string `toml:"theme"`
}

// Retention returns the retention window as a duration.
func (s SyncConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// Holdoff returns the startup refresh holdoff as a duration.
func (s SyncConfig) Holdoff() time.Duration {
	return time.Duration(s.RefreshHoldoff) * time.Second
}

func defaults() Config {
	return Config{
		Sync: SyncConfig{
			RetentionDays:  90,
			RefreshHoldoff: 300,
			PageSize:       10,
		},
		UI: UIConfig{
			Theme: "default",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the oldnews config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "oldnews")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "oldnews")
}

// DataDir returns the oldnews data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "oldnews")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "oldnews")
}
