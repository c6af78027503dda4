package spd

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// testImage builds an image describing a 16 GB 2Rx8 DDR4-3200 UDIMM
// with a valid base checksum.
func testImage(t *testing.T) *Image {
	t.Helper()
	im := &Image{}

	im[offBytesUsed] = 0x23
	im[offRevision] = 0x11
	im[offDramType] = DeviceTypeDDR4
	im[offModuleType] = uint8(ModuleUDIMM)
	im[offDensityBanks] = 0x05 // 8 Gb die, 4 banks, 4 groups
	im[offAddressing] = 0x21   // 16 row bits, 10 column bits
	im[offModuleOrg] = 0x09    // 2 ranks, x8 devices
	im[offBusWidth] = 0x03     // 64-bit bus

	im[offTimebases] = 0x00 // MTB 125 ps
	im[offTCKMin] = 5       // 0.625 ns, DDR4-3200
	im[offCASLatencies+1] = 0xA0
	im[offCASLatencies+2] = 0x02 // CL 20, 22, 24
	im[offTAAMin] = 110          // 13.75 ns
	im[offTRCDMin] = 110
	im[offTRPMin] = 110
	im[offTRASTRCHigh] = 0x11
	im[offTRASMinLow] = 0x00 // tRAS 256 MTB = 32 ns
	im[offTRCMinLow] = 0x6E  // tRC 366 MTB = 45.75 ns
	im[offTRFC1Min] = 0xF0
	im[offTRFC1Min+1] = 0x0A // 2800 MTB = 350 ns
	im[offTFAWLow] = 0xC8    // 200 MTB = 25 ns

	im[offMfgIDContinuation] = 0x80 // bank 1
	im[offMfgIDCode] = 0xCE         // Samsung
	im[offMfgLocation] = 0x02
	im[offMfgYear] = 0x21 // 2021, BCD
	im[offMfgWeek] = 0x12 // week 12, BCD
	copy(im[offSerialNumber:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	copy(im[offPartNumber:], "M378A2K43EB1-CWE    ")
	im[offRevisionCode] = 0x31

	UpdateChecksum(im)
	return im
}

func TestDecode(t *testing.T) {
	im := testImage(t)

	rec, err := Decode(im)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if rec.ModuleType != ModuleUDIMM {
		t.Errorf("ModuleType = %s, want UDIMM", rec.ModuleType)
	}
	if got := rec.Density.TotalMiB(); got != 16384 {
		t.Errorf("TotalMiB() = %d, want 16384", got)
	}
	if got := rec.Density.Organization(); got != "2Rx8" {
		t.Errorf("Organization() = %s, want 2Rx8", got)
	}
	if rec.Density.RowBits != 16 || rec.Density.ColBits != 10 {
		t.Errorf("addressing = %d row x %d col bits, want 16 x 10",
			rec.Density.RowBits, rec.Density.ColBits)
	}
	if rec.Density.BankGroups != 4 || rec.Density.BanksPerGroup != 4 {
		t.Errorf("banks = %d groups x %d, want 4 x 4",
			rec.Density.BankGroups, rec.Density.BanksPerGroup)
	}

	if math.Abs(rec.Timing.TCK-0.625) > 1e-9 {
		t.Errorf("TCK = %v, want 0.625", rec.Timing.TCK)
	}
	if got := rec.Timing.DataRate(); got != 3200 {
		t.Errorf("DataRate() = %d, want 3200", got)
	}
	if rec.Timing.CL != 22 {
		t.Errorf("CL = %d, want 22", rec.Timing.CL)
	}
	if got := rec.Timing.String(); got != "CL22-22-22-51" {
		t.Errorf("Timing.String() = %s, want CL22-22-22-51", got)
	}
	if math.Abs(rec.Timing.TRFC1-350) > 1e-9 {
		t.Errorf("TRFC1 = %v, want 350", rec.Timing.TRFC1)
	}
	if want := []int{20, 22, 24}; !reflect.DeepEqual(rec.SupportedCAS, want) {
		t.Errorf("SupportedCAS = %v, want %v", rec.SupportedCAS, want)
	}

	if rec.Manufacturer.Bank() != 1 || rec.Manufacturer.Index() != 0x4E {
		t.Errorf("Manufacturer = bank %d index 0x%02X, want bank 1 index 0x4E",
			rec.Manufacturer.Bank(), rec.Manufacturer.Index())
	}
	if rec.PartNumber != "M378A2K43EB1-CWE" {
		t.Errorf("PartNumber = %q", rec.PartNumber)
	}
	if got := rec.Serial(); got != "DEADBEEF" {
		t.Errorf("Serial() = %s, want DEADBEEF", got)
	}
	if got := rec.Date.String(); got != "2021 Week 12" {
		t.Errorf("Date = %s, want 2021 Week 12", got)
	}

	if !rec.ChecksumValid {
		t.Errorf("ChecksumValid = false, stored 0x%04X computed 0x%04X",
			rec.ChecksumStored, rec.ChecksumComputed)
	}
	if rec.XMP.Present {
		t.Error("XMP.Present = true on image without XMP block")
	}
}

func TestDecodeNonDDR4(t *testing.T) {
	im := testImage(t)
	im[offDramType] = 0x0B // DDR3

	rec, err := Decode(im)
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("Decode() error = %v, want UnsupportedFormatError", err)
	}
	if ufe.DeviceType != 0x0B {
		t.Errorf("DeviceType = 0x%02X, want 0x0B", ufe.DeviceType)
	}

	// Best-effort decode still yields the identity fields.
	if rec == nil || rec.PartNumber != "M378A2K43EB1-CWE" {
		t.Error("partial record not populated on unsupported type")
	}
}

func TestDecodeDoesNotMutate(t *testing.T) {
	im := testImage(t)
	before := im.Clone()

	if _, err := Decode(im); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if diffs := before.Diff(im); len(diffs) != 0 {
		t.Errorf("Decode mutated image at offsets %v", diffs)
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	im := testImage(t)
	im[offTCKMin] = 6 // change a covered byte without fixing the CRC

	rec, err := Decode(im)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if rec.ChecksumValid {
		t.Error("ChecksumValid = true on stale checksum")
	}
}

func TestDataRateBins(t *testing.T) {
	tests := []struct {
		name string
		tck  float64
		want int
	}{
		{"ddr4-3200", 0.625, 3200},
		{"ddr4-2666", 0.750, 2666},
		{"ddr4-2400", 0.833, 2400},
		{"ddr4-2133", 0.938, 2133},
		{"ddr4-1600", 1.250, 1600},
		{"above all bins", 0.500, 4000},
		{"zero tck", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Timing{TCK: tt.tck}.DataRate()
			if got != tt.want {
				t.Errorf("DataRate(%v ns) = %d, want %d", tt.tck, got, tt.want)
			}
		})
	}
}

func TestTCKDecodeTriples(t *testing.T) {
	tests := []struct {
		name     string
		timebase byte // 2-bit code in byte 0x011 bits 3:2
		base     byte
		fine     byte
		want     float64
	}{
		{"1ns timebase, no fine", 2, 10, 0x00, 10.0},
		{"125ps timebase, no fine", 0, 5, 0x00, 0.625},
		{"negative fine offset", 0, 110, 0xF2, 13.75 - 14.0/256},
		{"positive fine offset", 1, 3, 0x02, 0.75 + 2.0/256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := testImage(t)
			im[offTimebases] = tt.timebase << 2
			im[offTCKMin] = tt.base
			im[offTCKFine] = tt.fine

			rec, _ := Decode(im)
			if math.Abs(rec.Timing.TCK-tt.want) > 1e-12 {
				t.Errorf("TCK = %v, want %v", rec.Timing.TCK, tt.want)
			}
		})
	}
}

func TestDensityCapacityTuples(t *testing.T) {
	tests := []struct {
		name        string
		densityByte byte // density code + bank bits
		orgByte     byte // width + rank codes
		busByte     byte
		wantMiB     int
	}{
		{"16GB 2Rx8 from 8Gb die", 0x05, 0x09, 0x03, 16384},
		{"4GB 1Rx8 from 4Gb die", 0x04, 0x01, 0x03, 4096},
		{"32GB 2Rx4 from 8Gb die", 0x05, 0x08, 0x03, 32768},
		{"32GB 2Rx8 from 16Gb die", 0x06, 0x09, 0x03, 32768},
		{"2GB 1Rx8 on 32-bit bus from 4Gb die", 0x04, 0x01, 0x02, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := testImage(t)
			im[offDensityBanks] = tt.densityByte
			im[offModuleOrg] = tt.orgByte
			im[offBusWidth] = tt.busByte

			rec, _ := Decode(im)
			if got := rec.Density.TotalMiB(); got != tt.wantMiB {
				t.Errorf("TotalMiB() = %d, want %d", got, tt.wantMiB)
			}
		})
	}
}

func TestManufactureDateUnset(t *testing.T) {
	im := testImage(t)
	im[offMfgYear] = 0xFF

	rec, _ := Decode(im)
	if rec.Date.Year != 0 || rec.Date.String() != "Unknown" {
		t.Errorf("Date = %+v, want unset", rec.Date)
	}
}

func TestModuleTypeString(t *testing.T) {
	if got := ModuleSODIMM.String(); got != "SO-DIMM" {
		t.Errorf("ModuleSODIMM.String() = %s", got)
	}
	if got := ModuleType(0x0F).String(); got != "Unknown (0x0F)" {
		t.Errorf("unknown module type = %s", got)
	}
}
