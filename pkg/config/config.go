// Package config loads tool settings from ~/.spdstudio/config.toml.
// Everything has a working default; the file only exists to override
// USB IDs or timing for nonstandard programmer clones.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds tool settings. Durations are TOML strings like "20ms".
type Config struct {
	Programmer ProgrammerConfig `toml:"programmer"`
	History    HistoryConfig    `toml:"history"`
}

// ProgrammerConfig overrides transport parameters.
type ProgrammerConfig struct {
	VendorID        uint16   `toml:"vendor_id"`
	ProductID       uint16   `toml:"product_id"`
	CommandDelay    Duration `toml:"command_delay"`
	WriteDelay      Duration `toml:"write_delay"`
	PageSettleDelay Duration `toml:"page_settle_delay"`
	BlockRetries    int      `toml:"block_retries"`
	PageRetries     int      `toml:"page_retries"`
}

// HistoryConfig overrides archive behavior.
type HistoryConfig struct {
	DBPath string `toml:"db_path"`
}

// Duration wraps time.Duration so TOML values parse from strings like
// "20ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Programmer: ProgrammerConfig{
			VendorID:        0x0483,
			ProductID:       0x1230,
			CommandDelay:    Duration{20 * time.Millisecond},
			WriteDelay:      Duration{100 * time.Millisecond},
			PageSettleDelay: Duration{200 * time.Millisecond},
			BlockRetries:    3,
			PageRetries:     2,
		},
	}
}

// DefaultPath resolves the config file location, checking the
// SPDSTUDIO_CONFIG environment variable first, then the home
// directory.
func DefaultPath() string {
	if path := os.Getenv("SPDSTUDIO_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".spdstudio", "config.toml")
	}
	return filepath.Join(home, ".spdstudio", "config.toml")
}

// Load reads the config file at path, layered over the defaults. A
// missing file is not an error; the defaults apply as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
