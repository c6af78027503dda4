package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mscrnt/spd_studio/pkg/config"
	"github.com/mscrnt/spd_studio/pkg/jedec"
	"github.com/mscrnt/spd_studio/pkg/programmer"
	"github.com/mscrnt/spd_studio/pkg/spd"
)

// getDBPath returns the path to the image archive database
func getDBPath(cfg *config.Config) string {
	// Check environment variable first
	if dbPath := os.Getenv("SPDSTUDIO_DB_PATH"); dbPath != "" {
		return dbPath
	}

	if cfg != nil && cfg.History.DBPath != "" {
		return cfg.History.DBPath
	}

	// Default to user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory
		return "spdstudio.db"
	}

	studioDir := filepath.Join(homeDir, ".spdstudio")
	if err := os.MkdirAll(studioDir, 0o755); err == nil {
		return filepath.Join(studioDir, "spdstudio.db")
	}

	// Fallback to current directory
	return "spdstudio.db"
}

// loadConfig resolves and loads the config file.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// connectProgrammer opens a session with settings from the config file
// and a terminal progress readout.
func connectProgrammer(cfg *config.Config, showProgress bool) (*programmer.Session, error) {
	p := cfg.Programmer
	vid, pid := p.VendorID, p.ProductID
	if overrideVID != 0 {
		vid = overrideVID
	}
	if overridePID != 0 {
		pid = overridePID
	}
	opts := []programmer.Option{
		programmer.WithVendorID(vid),
		programmer.WithProductID(pid),
		programmer.WithCommandDelay(p.CommandDelay.Duration),
		programmer.WithWriteDelay(p.WriteDelay.Duration),
		programmer.WithPageSettleDelay(p.PageSettleDelay.Duration),
		programmer.WithBlockRetries(p.BlockRetries),
		programmer.WithPageRetries(p.PageRetries),
	}
	if showProgress {
		opts = append(opts, programmer.WithProgress(printProgress))
	}
	return programmer.Connect(opts...)
}

func printProgress(p programmer.Progress) {
	pct := 100 * p.BytesTransferred / p.TotalBytes
	fmt.Fprintf(os.Stderr, "\r  %d/%d bytes (%d%%)", p.BytesTransferred, p.TotalBytes, pct)
	if p.BytesTransferred >= p.TotalBytes {
		fmt.Fprintln(os.Stderr)
	}
}

// printSummary writes the short decode summary shared by read and info.
func printSummary(rec *spd.Record) {
	mfg := jedec.Name(rec.Manufacturer.Bank(), rec.Manufacturer.Index())

	fmt.Printf("Module:       %s %s\n", rec.ModuleType, rec.Density.Organization())
	fmt.Printf("Capacity:     %.0f GB (%d MiB)\n", rec.Density.CapacityGB(), rec.Density.TotalMiB())
	fmt.Printf("Speed:        DDR4-%d %s\n", rec.Timing.DataRate(), rec.Timing)
	fmt.Printf("Manufacturer: %s\n", mfg)
	fmt.Printf("Part number:  %s\n", rec.PartNumber)
	fmt.Printf("Serial:       %s\n", rec.Serial())
	fmt.Printf("Made:         %s\n", rec.Date)

	if rec.ChecksumValid {
		fmt.Printf("Checksum:     OK (0x%04X)\n", rec.ChecksumStored)
	} else {
		fmt.Printf("Checksum:     MISMATCH (stored 0x%04X, computed 0x%04X)\n",
			rec.ChecksumStored, rec.ChecksumComputed)
	}

	if rec.XMP.Present {
		var profiles []string
		for i, p := range rec.XMP.Profiles {
			if p == nil {
				continue
			}
			profiles = append(profiles, fmt.Sprintf("#%d DDR4-%d %.2fV", i+1, p.Frequency(), p.Voltage))
		}
		if len(profiles) == 0 {
			fmt.Printf("XMP:          header present, no profiles enabled\n")
		} else {
			fmt.Printf("XMP %s:      %s\n", rec.XMP.Version, strings.Join(profiles, ", "))
		}
	}
}

// cyclesOf converts a nanosecond timing to clock cycles at tck.
func cyclesOf(ns, tck float64) int {
	if tck <= 0 {
		return 0
	}
	return int(math.Round(ns / tck))
}

// formatCASList renders the supported CAS latencies, e.g. "14, 15, 16".
func formatCASList(cas []int) string {
	sorted := append([]int(nil), cas...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, cl := range sorted {
		parts[i] = fmt.Sprintf("%d", cl)
	}
	return strings.Join(parts, ", ")
}
