package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mscrnt/spd_studio/pkg/jedec"
	"github.com/mscrnt/spd_studio/pkg/spd"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportBase   string
)

func createExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <image.bin>",
		Short: "Export a full text report for an SPD image",
		Long: `Render a detailed plain-text report of every decoded field. With
--base, the report also lists the byte-level modifications relative to
another image, typically the unedited dump.

Examples:
  # Print the report
  spdstudio export dump.bin

  # Write it to a file
  spdstudio export dump.bin -o report.txt

  # Include the diff against the original dump
  spdstudio export edited.bin --base dump.bin`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the report to this file")
	cmd.Flags().StringVar(&exportBase, "base", "", "Image to diff against")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	img, err := spd.ReadFile(args[0])
	if err != nil {
		return err
	}

	rec, decErr := spd.Decode(img)
	if decErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", decErr)
	}

	var base *spd.Image
	if exportBase != "" {
		base, err = spd.ReadFile(exportBase)
		if err != nil {
			return err
		}
	}

	report := renderReport(rec, img, base)

	if exportOutput == "" {
		fmt.Print(report)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(report), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	fmt.Printf("Report written to %s\n", exportOutput)
	return nil
}

func renderReport(rec *spd.Record, img, base *spd.Image) string {
	var sb strings.Builder

	line := strings.Repeat("=", 60)
	fmt.Fprintf(&sb, "%s\nSPD Report\nGenerated: %s\n%s\n\n",
		line, time.Now().Format("2006-01-02 15:04:05"), line)

	fmt.Fprintf(&sb, "Module\n------\n")
	fmt.Fprintf(&sb, "  Type:            %s\n", rec.ModuleType)
	fmt.Fprintf(&sb, "  Organization:    %s\n", rec.Density.Organization())
	fmt.Fprintf(&sb, "  Capacity:        %.0f GB (%d MiB)\n", rec.Density.CapacityGB(), rec.Density.TotalMiB())
	fmt.Fprintf(&sb, "  Die density:     %d Mb x%d\n", rec.Density.DieDensityMb, rec.Density.DiePerPackage)
	fmt.Fprintf(&sb, "  Banks:           %d groups x %d\n", rec.Density.BankGroups, rec.Density.BanksPerGroup)
	fmt.Fprintf(&sb, "  Addressing:      %d row x %d column bits\n", rec.Density.RowBits, rec.Density.ColBits)
	fmt.Fprintf(&sb, "  Bus width:       %d bits\n\n", rec.Density.BusWidth)

	t := rec.Timing
	fmt.Fprintf(&sb, "Timing\n------\n")
	fmt.Fprintf(&sb, "  Speed:           DDR4-%d\n", t.DataRate())
	fmt.Fprintf(&sb, "  Primary timings: %s\n", t)
	fmt.Fprintf(&sb, "  tCK min:         %.3f ns\n", t.TCK)
	fmt.Fprintf(&sb, "  tAA min:         %.3f ns\n", t.TAA)
	fmt.Fprintf(&sb, "  tRCD min:        %.3f ns\n", t.TRCD)
	fmt.Fprintf(&sb, "  tRP min:         %.3f ns\n", t.TRP)
	fmt.Fprintf(&sb, "  tRAS min:        %.3f ns\n", t.TRAS)
	fmt.Fprintf(&sb, "  tRC min:         %.3f ns\n", t.TRC)
	fmt.Fprintf(&sb, "  tRFC1 min:       %.1f ns\n", t.TRFC1)
	fmt.Fprintf(&sb, "  tFAW min:        %.3f ns\n", t.TFAW)
	fmt.Fprintf(&sb, "  CAS support:     %s\n\n", formatCASList(rec.SupportedCAS))

	fmt.Fprintf(&sb, "Identity\n--------\n")
	fmt.Fprintf(&sb, "  Manufacturer:    %s\n", jedec.Name(rec.Manufacturer.Bank(), rec.Manufacturer.Index()))
	fmt.Fprintf(&sb, "  Part number:     %s\n", rec.PartNumber)
	fmt.Fprintf(&sb, "  Serial:          %s\n", rec.Serial())
	fmt.Fprintf(&sb, "  Manufactured:    %s\n", rec.Date)
	fmt.Fprintf(&sb, "  Revision code:   0x%02X\n\n", rec.RevisionCode)

	fmt.Fprintf(&sb, "Integrity\n---------\n")
	if rec.ChecksumValid {
		fmt.Fprintf(&sb, "  Checksum:        OK (0x%04X)\n\n", rec.ChecksumStored)
	} else {
		fmt.Fprintf(&sb, "  Checksum:        MISMATCH (stored 0x%04X, computed 0x%04X)\n\n",
			rec.ChecksumStored, rec.ChecksumComputed)
	}

	if rec.XMP.Present {
		fmt.Fprintf(&sb, "XMP %s\n-------\n", rec.XMP.Version)
		for i, p := range rec.XMP.Profiles {
			if p == nil {
				fmt.Fprintf(&sb, "  Profile %d:       disabled\n", i+1)
				continue
			}
			fmt.Fprintf(&sb, "  Profile %d:       DDR4-%d CL%d-%d-%d-%d @ %.3f V\n",
				i+1, p.Frequency(), p.Timing.CL,
				cyclesOf(p.Timing.TRCD, p.Timing.TCK),
				cyclesOf(p.Timing.TRP, p.Timing.TCK),
				cyclesOf(p.Timing.TRAS, p.Timing.TCK),
				p.Voltage)
			if !p.ChecksumValid {
				fmt.Fprintf(&sb, "                   (profile checksum mismatch)\n")
			}
		}
		sb.WriteString("\n")
	}

	if base != nil {
		mods := spd.Modifications(base, img)
		fmt.Fprintf(&sb, "Modifications\n-------------\n")
		if len(mods) == 0 {
			fmt.Fprintf(&sb, "  none\n")
		}
		for _, m := range mods {
			fmt.Fprintf(&sb, "  %s\n", m)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
