package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mscrnt/spd_studio/pkg/jedec"
	"github.com/mscrnt/spd_studio/pkg/spd"
	"github.com/spf13/cobra"
)

var infoJSON bool

func createInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <image.bin>",
		Short: "Decode and display an SPD image file",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	cmd.Flags().BoolVar(&infoJSON, "json", false, "Output as JSON")

	return cmd
}

// infoXMPProfile is the JSON shape of one XMP profile.
type infoXMPProfile struct {
	Frequency     int     `json:"frequency"`
	Voltage       float64 `json:"voltage"`
	CL            int     `json:"cl"`
	TRCDCycles    int     `json:"trcd_cycles"`
	TRPCycles     int     `json:"trp_cycles"`
	TRASCycles    int     `json:"tras_cycles"`
	ChecksumValid bool    `json:"checksum_valid"`
}

// infoOutput is the JSON shape of a decoded image.
type infoOutput struct {
	ModuleType      string           `json:"module_type"`
	Organization    string           `json:"organization"`
	CapacityMiB     int              `json:"capacity_mib"`
	DataRate        int              `json:"data_rate"`
	Timings         string           `json:"timings"`
	TCKNs           float64          `json:"tck_ns"`
	SupportedCAS    []int            `json:"supported_cas"`
	Manufacturer    string           `json:"manufacturer"`
	PartNumber      string           `json:"part_number"`
	Serial          string           `json:"serial"`
	ManufactureDate string           `json:"manufacture_date"`
	ChecksumValid   bool             `json:"checksum_valid"`
	XMPProfiles     []infoXMPProfile `json:"xmp_profiles,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	img, err := spd.ReadFile(args[0])
	if err != nil {
		return err
	}

	rec, decErr := spd.Decode(img)
	if decErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", decErr)
	}

	if infoJSON {
		out := infoOutput{
			ModuleType:      rec.ModuleType.String(),
			Organization:    rec.Density.Organization(),
			CapacityMiB:     rec.Density.TotalMiB(),
			DataRate:        rec.Timing.DataRate(),
			Timings:         rec.Timing.String(),
			TCKNs:           rec.Timing.TCK,
			SupportedCAS:    rec.SupportedCAS,
			Manufacturer:    jedec.Name(rec.Manufacturer.Bank(), rec.Manufacturer.Index()),
			PartNumber:      rec.PartNumber,
			Serial:          rec.Serial(),
			ManufactureDate: rec.Date.String(),
			ChecksumValid:   rec.ChecksumValid,
		}
		for _, p := range rec.XMP.Profiles {
			if p == nil {
				continue
			}
			out.XMPProfiles = append(out.XMPProfiles, infoXMPProfile{
				Frequency:     p.Frequency(),
				Voltage:       p.Voltage,
				CL:            p.Timing.CL,
				TRCDCycles:    cyclesOf(p.Timing.TRCD, p.Timing.TCK),
				TRPCycles:     cyclesOf(p.Timing.TRP, p.Timing.TCK),
				TRASCycles:    cyclesOf(p.Timing.TRAS, p.Timing.TCK),
				ChecksumValid: p.ChecksumValid,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSummary(rec)
	fmt.Printf("CAS support:  %s\n", formatCASList(rec.SupportedCAS))
	return nil
}
