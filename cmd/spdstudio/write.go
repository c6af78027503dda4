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
	writeFixCRC   bool
	writeForce    bool
	writeNoBackup bool
)

func createWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <image.bin>",
		Short: "Write an SPD image to the attached module",
		Long: `Write a 512-byte SPD image to the module on the programmer. The
module's current contents are archived first so the write can be undone,
and every page is read back and verified after writing.

An image whose checksum does not match its contents is refused unless
--fix-crc recomputes it or --force writes it as-is.

Examples:
  # Write an image, backing up the current contents
  spdstudio write edited.bin

  # Recompute the checksum before writing
  spdstudio write edited.bin --fix-crc

  # Restore an archived image exported with 'history export'
  spdstudio write backup.bin`,
		Args: cobra.ExactArgs(1),
		RunE: runWrite,
	}

	cmd.Flags().BoolVar(&writeFixCRC, "fix-crc", false, "Recompute the checksum before writing")
	cmd.Flags().BoolVar(&writeForce, "force", false, "Write even if the checksum does not match")
	cmd.Flags().BoolVar(&writeNoBackup, "no-backup", false, "Skip archiving the module's current contents")

	return cmd
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	img, err := spd.ReadFile(args[0])
	if err != nil {
		return err
	}

	if writeFixCRC {
		spd.UpdateChecksum(img)
	}
	if stored, computed := spd.StoredChecksum(img), spd.ComputeChecksum(img); stored != computed {
		if !writeForce {
			return fmt.Errorf("image checksum mismatch (stored 0x%04X, computed 0x%04X); use --fix-crc or --force", stored, computed)
		}
		fmt.Fprintf(os.Stderr, "Warning: writing image with mismatched checksum\n")
	}

	session, err := connectProgrammer(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	fmt.Printf("Connected to programmer, firmware %s\n", session.FirmwareVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !writeNoBackup {
		fmt.Println("Backing up current contents...")
		current, err := session.ReadImage(ctx)
		if err != nil {
			return fmt.Errorf("backup read failed: %w", err)
		}

		db, err := history.Open(getDBPath(cfg))
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		entry, err := db.Save(current, history.SourceBackup, "pre-write backup")
		_ = db.Close()
		if err != nil {
			return fmt.Errorf("failed to archive backup: %w", err)
		}
		fmt.Printf("\nBackup archived as entry %d\n", entry.ID)
	}

	fmt.Println("Writing SPD...")
	if err := session.WriteImage(ctx, img); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Println("Write verified")
	return nil
}
