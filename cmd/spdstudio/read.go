package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mscrnt/spd_studio/pkg/history"
	"github.com/mscrnt/spd_studio/pkg/spd"
	"github.com/spf13/cobra"
)

var (
	readOutput    string
	readNoArchive bool
	readLabel     string
)

func createReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the SPD image from the attached module",
		Long: `Read the full 512-byte SPD image from the module on the programmer,
decode it, and archive it. Interrupting with Ctrl-C stops the transfer
at a block boundary.

Examples:
  # Read and archive, printing the decoded summary
  spdstudio read

  # Read into a file as well
  spdstudio read -o dump.bin

  # Read without touching the archive
  spdstudio read --no-archive`,
		Args: cobra.NoArgs,
		RunE: runRead,
	}

	cmd.Flags().StringVarP(&readOutput, "output", "o", "", "Write the raw image to this file")
	cmd.Flags().BoolVar(&readNoArchive, "no-archive", false, "Skip archiving the image")
	cmd.Flags().StringVar(&readLabel, "label", "", "Label to store with the archived image")

	return cmd
}

func runRead(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := connectProgrammer(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	fmt.Printf("Connected to programmer, firmware %s\n", session.FirmwareVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Reading SPD...")
	img, err := session.ReadImage(ctx)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	rec, decErr := spd.Decode(img)
	if decErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", decErr)
	}
	fmt.Println()
	printSummary(rec)

	if readOutput != "" {
		if err := img.WriteFile(readOutput); err != nil {
			return fmt.Errorf("failed to write %s: %w", readOutput, err)
		}
		fmt.Printf("\nSaved image to %s\n", readOutput)
	}

	if !readNoArchive {
		db, err := history.Open(getDBPath(cfg))
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer func() { _ = db.Close() }()

		entry, err := db.Save(img, history.SourceRead, readLabel)
		if err != nil {
			return err
		}
		fmt.Printf("Archived as entry %d\n", entry.ID)
	}

	return nil
}
