package config

import (
	"errors"
	"time"
)

// HotReloadConfig controls re-reading the service list when the config file
// changes on disk.
type HotReloadConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Debounce is the quiet period after the last file event before the
	// services are reloaded. Editors often write a file in several steps.
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// DefaultHotReloadConfig returns default hot reload configuration
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:  true,
		Debounce: 500 * time.Millisecond,
	}
}

// Active reports whether configFile should be watched. Without a file there
// is nothing to watch and the service list is fixed.
func (h HotReloadConfig) Active(configFile string) bool {
	return h.Enabled && configFile != ""
}

// Validate validates hot reload configuration
func (h HotReloadConfig) Validate() error {
	if h.Debounce < 0 {
		return errors.New("debounce must be non-negative")
	}
	if h.Debounce > time.Minute {
		return errors.New("debounce must not exceed 1m")
	}
	return nil
}
