package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Programmer.VendorID != 0x0483 || cfg.Programmer.ProductID != 0x1230 {
		t.Errorf("USB IDs = %04X:%04X", cfg.Programmer.VendorID, cfg.Programmer.ProductID)
	}
	if cfg.Programmer.BlockRetries != 3 {
		t.Errorf("BlockRetries = %d, want 3", cfg.Programmer.BlockRetries)
	}
	if cfg.Programmer.WriteDelay.Duration != 100*time.Millisecond {
		t.Errorf("WriteDelay = %v", cfg.Programmer.WriteDelay.Duration)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[programmer]
vendor_id = 0x1209
command_delay = "5ms"
page_retries = 5

[history]
db_path = "/var/lib/spdstudio/archive.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Programmer.VendorID != 0x1209 {
		t.Errorf("VendorID = 0x%04X, want 0x1209", cfg.Programmer.VendorID)
	}
	if cfg.Programmer.CommandDelay.Duration != 5*time.Millisecond {
		t.Errorf("CommandDelay = %v, want 5ms", cfg.Programmer.CommandDelay.Duration)
	}
	if cfg.Programmer.PageRetries != 5 {
		t.Errorf("PageRetries = %d, want 5", cfg.Programmer.PageRetries)
	}
	if cfg.History.DBPath != "/var/lib/spdstudio/archive.db" {
		t.Errorf("DBPath = %q", cfg.History.DBPath)
	}

	// Unset keys keep their defaults.
	if cfg.Programmer.ProductID != 0x1230 {
		t.Errorf("ProductID = 0x%04X, want default 0x1230", cfg.Programmer.ProductID)
	}
	if cfg.Programmer.BlockRetries != 3 {
		t.Errorf("BlockRetries = %d, want default 3", cfg.Programmer.BlockRetries)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[programmer\nvendor_id="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed TOML")
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[programmer]\ncommand_delay = \"fast\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted an unparseable duration")
	}
}

func TestDefaultPathEnvOverride(t *testing.T) {
	t.Setenv("SPDSTUDIO_CONFIG", "/tmp/custom.toml")
	if got := DefaultPath(); got != "/tmp/custom.toml" {
		t.Errorf("DefaultPath() = %s", got)
	}
}
