package spd

import (
	"fmt"
	"math"
)

// ModuleType is the DDR4 module form factor from SPD byte 3.
type ModuleType uint8

const (
	ModuleRDIMM      ModuleType = 0x01
	ModuleUDIMM      ModuleType = 0x02
	ModuleSODIMM     ModuleType = 0x03
	ModuleLRDIMM     ModuleType = 0x04
	ModuleMiniRDIMM  ModuleType = 0x05
	ModuleMiniUDIMM  ModuleType = 0x06
	Module72bSORDIMM ModuleType = 0x08
	Module72bSOUDIMM ModuleType = 0x09
	Module16bSODIMM  ModuleType = 0x0C
	Module32bSODIMM  ModuleType = 0x0D
)

var moduleTypeNames = map[ModuleType]string{
	ModuleRDIMM:      "RDIMM",
	ModuleUDIMM:      "UDIMM",
	ModuleSODIMM:     "SO-DIMM",
	ModuleLRDIMM:     "LRDIMM",
	ModuleMiniRDIMM:  "Mini-RDIMM",
	ModuleMiniUDIMM:  "Mini-UDIMM",
	Module72bSORDIMM: "72b-SO-RDIMM",
	Module72bSOUDIMM: "72b-SO-UDIMM",
	Module16bSODIMM:  "16b-SO-DIMM",
	Module32bSODIMM:  "32b-SO-DIMM",
}

func (m ModuleType) String() string {
	if name, ok := moduleTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%02X)", uint8(m))
}

// Die density per package in Mb, SPD byte 4 bits 3:0.
var densityMbTable = map[uint64]int{
	0x0: 256,
	0x1: 512,
	0x2: 1024,
	0x3: 2048,
	0x4: 4096,
	0x5: 8192,
	0x6: 16384,
	0x7: 32768,
	0x8: 12288,
	0x9: 24576,
}

var rowBitsTable = map[uint64]int{0: 12, 1: 13, 2: 14, 3: 15, 4: 16, 5: 17, 6: 18}
var colBitsTable = map[uint64]int{0: 9, 1: 10, 2: 11, 3: 12}

// Standard speed bins keyed by tCK range in ps.
var speedGrades = []struct {
	minPs, maxPs float64
	rate         int
}{
	{625, 750, 3200},
	{750, 833, 2666},
	{833, 938, 2400},
	{938, 1071, 2133},
	{1071, 1250, 1866},
	{1250, 1500, 1600},
}

// ManufacturerID is the raw continuation-code-encoded JEDEC bank/ID pair
// from SPD bytes 320-321. Name resolution is external to the parser.
type ManufacturerID struct {
	Continuation uint8
	Code         uint8
}

// Bank returns the 1-based JEP106 bank number.
func (id ManufacturerID) Bank() int {
	return int(id.Continuation&0x7F) + 1
}

// Index returns the manufacturer index with the parity bit stripped.
func (id ManufacturerID) Index() uint8 {
	return id.Code & 0x7F
}

func (id ManufacturerID) String() string {
	return fmt.Sprintf("0x%02X%02X", id.Continuation, id.Code)
}

// Density holds the decoded organization sub-fields. Total capacity is
// a multiplicative function of these, so each intermediate is exposed
// and independently testable.
type Density struct {
	DieDensityMb  int // per-package SDRAM density
	DiePerPackage int
	BankGroups    int
	BanksPerGroup int
	RowBits       int
	ColBits       int
	DeviceWidth   int // SDRAM I/O width in bits
	BusWidth      int // primary bus width in bits
	Ranks         int
}

// TotalMiB computes the module capacity:
// density/8 * busWidth/deviceWidth * ranks.
func (d Density) TotalMiB() int {
	if d.DeviceWidth == 0 {
		return 0
	}
	return d.DieDensityMb / 8 * d.BusWidth / d.DeviceWidth * d.Ranks
}

// CapacityGB returns the capacity in GB.
func (d Density) CapacityGB() float64 {
	return float64(d.TotalMiB()) / 1024
}

// Organization renders the rank/width form, e.g. "2Rx8".
func (d Density) Organization() string {
	return fmt.Sprintf("%dRx%d", d.Ranks, d.DeviceWidth)
}

// Timing holds the decoded timing parameters in nanoseconds.
type Timing struct {
	TCK   float64 // minimum clock cycle time
	TAA   float64 // CAS latency time
	TRCD  float64
	TRP   float64
	TRAS  float64
	TRC   float64
	TRFC1 float64
	TFAW  float64
	TRRDS float64
	TRRDL float64
	TCCDL float64
	CL    int // CAS latency in cycles, derived from tAA/tCK
}

// DataRate returns the transfer rate in MT/s, snapped to the standard
// speed bin when tCK falls inside one.
func (t Timing) DataRate() int {
	if t.TCK <= 0 {
		return 0
	}
	ps := t.TCK * 1000
	for _, g := range speedGrades {
		if ps >= g.minPs && ps < g.maxPs {
			return g.rate
		}
	}
	return int(2e6 / ps)
}

// String renders the conventional timing shorthand, e.g. "CL16-18-18-36".
func (t Timing) String() string {
	if t.TCK <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("CL%d-%d-%d-%d",
		t.CL,
		cycles(t.TRCD, t.TCK),
		cycles(t.TRP, t.TCK),
		cycles(t.TRAS, t.TCK))
}

func cycles(ns, tck float64) int {
	if tck <= 0 {
		return 0
	}
	return int(math.Round(ns / tck))
}

// ManufactureDate is the BCD-coded year/week pair from SPD bytes 323-324.
type ManufactureDate struct {
	Year int // full year, e.g. 2021; zero when unset
	Week int
}

func (d ManufactureDate) String() string {
	if d.Year == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d Week %02d", d.Year, d.Week)
}

// Record is the structured view of a DDR4 image. It is derived, never
// authoritative: re-encoding a Record patches the source image rather
// than rebuilding it, so vendor-specific bytes survive untouched.
type Record struct {
	BytesUsed  uint8
	Revision   uint8
	DeviceType uint8
	ModuleType ModuleType

	Density Density
	Timing  Timing

	// SupportedCAS lists the CAS latencies advertised in the CL bitmap.
	SupportedCAS []int

	Manufacturer ManufacturerID
	Location     uint8
	Date         ManufactureDate
	SerialNumber [serialLen]byte
	PartNumber   string
	RevisionCode uint8

	// Checksum state over the base section. A mismatch is advisory:
	// some modules ship with vendor-specific checksums.
	ChecksumStored   uint16
	ChecksumComputed uint16
	ChecksumValid    bool

	XMP XMP
}

// Serial renders the serial number as hex.
func (r *Record) Serial() string {
	return fmt.Sprintf("%02X%02X%02X%02X",
		r.SerialNumber[0], r.SerialNumber[1], r.SerialNumber[2], r.SerialNumber[3])
}

// UnsupportedFormatError reports a non-DDR4 device type byte. Decoding
// still proceeds best-effort; the caller can inspect the raw fields.
type UnsupportedFormatError struct {
	DeviceType uint8
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported DRAM device type 0x%02X, expected DDR4 (0x%02X)", e.DeviceType, DeviceTypeDDR4)
}

// Decode derives a Record from the image. The returned error is nil or
// an *UnsupportedFormatError; in the latter case the record is still
// populated with whatever the DDR4 layout yields, so callers can show
// partial data alongside the warning.
func Decode(im *Image) (*Record, error) {
	r := &Record{
		BytesUsed:  im[offBytesUsed],
		Revision:   im[offRevision],
		DeviceType: uint8(fieldDramType.Uint(im)),
		ModuleType: ModuleType(fieldModuleType.Uint(im)),
	}

	r.Density = decodeDensity(im)
	r.Timing = decodeTiming(im)
	r.SupportedCAS = decodeCASLatencies(im)

	r.Manufacturer = ManufacturerID{
		Continuation: im[offMfgIDContinuation],
		Code:         im[offMfgIDCode],
	}
	r.Location = im[offMfgLocation]
	r.Date = decodeDate(im)
	copy(r.SerialNumber[:], im[offSerialNumber:offSerialNumber+serialLen])
	r.PartNumber = textPartNumber.Get(im)
	r.RevisionCode = im[offRevisionCode]

	r.ChecksumStored = StoredChecksum(im)
	r.ChecksumComputed = ComputeChecksum(im)
	r.ChecksumValid = r.ChecksumStored == r.ChecksumComputed

	r.XMP = DecodeXMP(im)

	if r.DeviceType != DeviceTypeDDR4 {
		return r, &UnsupportedFormatError{DeviceType: r.DeviceType}
	}
	return r, nil
}

func decodeDensity(im *Image) Density {
	d := Density{}
	if mb, ok := densityMbTable[fieldDensityCode.Uint(im)]; ok {
		d.DieDensityMb = mb
	}

	// Package: 3-bit die count code, die = code + 1. Monolithic parts
	// read zero here.
	d.DiePerPackage = int(fieldDiePerPkg.Uint(im)) + 1

	if fieldBankGroups.Uint(im) == 0 {
		d.BankGroups = 4
	} else {
		d.BankGroups = 2
	}
	d.BanksPerGroup = 4 << fieldBankAddr.Uint(im)

	d.RowBits = rowBitsTable[fieldRowBits.Uint(im)]
	d.ColBits = colBitsTable[fieldColBits.Uint(im)]

	d.DeviceWidth = 4 << fieldDeviceWidth.Uint(im)
	d.Ranks = int(fieldRanks.Uint(im)) + 1
	d.BusWidth = 8 << fieldBusWidth.Uint(im)
	return d
}

// mtbNs returns the medium timebase selected by byte 17. Codes outside
// the defined table fall back to the DDR4 default of 125 ps.
func mtbNs(im *Image) float64 {
	if tb, ok := mtbTable[fieldTimebase.Uint(im)]; ok {
		return tb
	}
	return 0.125
}

// timing computes mtb*base + ftb*fine, the two-level JEDEC Annex scheme.
// Dropping the fine term would skew derived frequencies by fractions of
// a MHz, so both levels are always applied.
func fineTiming(im *Image, baseOff, fineOff int) float64 {
	return float64(im[baseOff])*mtbNs(im) + float64(signed(im[fineOff]))*ftbNs
}

func decodeTiming(im *Image) Timing {
	mtb := mtbNs(im)
	t := Timing{
		TCK:  fineTiming(im, offTCKMin, offTCKFine),
		TAA:  fineTiming(im, offTAAMin, offTAAFine),
		TRCD: fineTiming(im, offTRCDMin, offTRCDFine),
		TRP:  fineTiming(im, offTRPMin, offTRPFine),
	}

	high := im[offTRASTRCHigh]
	t.TRAS = float64(uint16(high&0x0F)<<8|uint16(im[offTRASMinLow])) * mtb
	t.TRC = float64(uint16(high>>4)<<8|uint16(im[offTRCMinLow]))*mtb +
		float64(signed(im[offTRCFine]))*ftbNs

	t.TRFC1 = float64(fieldTRFC1.Uint(im)) * mtb
	t.TFAW = float64(uint16(im[offTFAWHigh]&0x0F)<<8|uint16(im[offTFAWLow])) * mtb
	t.TRRDS = float64(im[offTRRDSMin]) * mtb
	t.TRRDL = float64(im[offTRRDLMin]) * mtb
	t.TCCDL = float64(im[offTCCDLMin]) * mtb

	if t.TCK > 0 {
		t.CL = cycles(t.TAA, t.TCK)
	}
	return t
}

func decodeCASLatencies(im *Image) []int {
	var supported []int
	for i := 0; i < 4; i++ {
		b := im[offCASLatencies+i]
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				supported = append(supported, 7+i*8+bit)
			}
		}
	}
	return supported
}

func decodeDate(im *Image) ManufactureDate {
	year := im[offMfgYear]
	week := im[offMfgWeek]
	if year == 0 || year == 0xFF {
		return ManufactureDate{}
	}
	return ManufactureDate{
		Year: 2000 + int(year>>4)*10 + int(year&0x0F),
		Week: int(week>>4)*10 + int(week&0x0F),
	}
}
