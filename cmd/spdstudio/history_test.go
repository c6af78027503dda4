package main

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mscrnt/spd_studio/pkg/history"
	"github.com/mscrnt/spd_studio/pkg/spd"
)

func TestHistoryShowNonDDR4(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPDSTUDIO_DB_PATH", filepath.Join(dir, "archive.db"))
	t.Setenv("SPDSTUDIO_CONFIG", filepath.Join(dir, "missing.toml"))

	// A DDR3 device type byte decodes with a warning, not a failure, so
	// archived dumps from unsupported modules stay viewable.
	raw := make([]byte, spd.Size)
	raw[2] = 0x0B
	img, err := spd.FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}

	db, err := history.Open(getDBPath(nil))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	entry, err := db.Save(img, history.SourceImport, "ddr3 dump")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if err := runHistoryShow(nil, []string{fmt.Sprint(entry.ID)}); err != nil {
		t.Errorf("runHistoryShow() error: %v", err)
	}
}
