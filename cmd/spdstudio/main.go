package main

import (
	"fmt"
	"os"

	"github.com/mscrnt/spd_studio/internal/version"
	"github.com/spf13/cobra"
)

var (
	// Build variables set by ldflags
	buildVersion string
	buildCommit  string
	buildTime    string

	configPath  string
	overrideVID uint16
	overridePID uint16
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spdstudio",
		Short: "SPD Studio - DDR4 SPD read, decode and programming tool",
		Long: `SPD Studio reads, decodes, edits and writes DDR4 Serial Presence
Detect EEPROMs through a USB-HID programmer, and keeps an archive of
every image it touches.`,
		Version: version.GetVersion(buildVersion, buildCommit, buildTime),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.spdstudio/config.toml)")
	rootCmd.PersistentFlags().Uint16Var(&overrideVID, "vid", 0, "Override programmer USB vendor ID")
	rootCmd.PersistentFlags().Uint16Var(&overridePID, "pid", 0, "Override programmer USB product ID")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(createReadCmd())
	rootCmd.AddCommand(createWriteCmd())
	rootCmd.AddCommand(createInfoCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.GetDetailedVersion(buildVersion, buildCommit, buildTime))
		},
	}
}
