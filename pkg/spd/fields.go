package spd

// SPD byte offsets for DDR4 (JEDEC SPD Rev 1.1)
const (
	// Base configuration (0-127)
	offBytesUsed    = 0x000 // Number of bytes used / total
	offRevision     = 0x001 // SPD Revision
	offDramType     = 0x002 // DRAM Device Type
	offModuleType   = 0x003 // Module Type
	offDensityBanks = 0x004 // SDRAM Density and Banks
	offAddressing   = 0x005 // SDRAM Addressing
	offPackageType  = 0x006 // Primary SDRAM Package Type
	offVoltage      = 0x00B // Module Nominal Voltage
	offModuleOrg    = 0x00C // Module Organization
	offBusWidth     = 0x00D // Module Memory Bus Width

	// Timing parameters
	offTimebases     = 0x011 // Timebases (MTB / FTB selection)
	offTCKMin        = 0x012 // Minimum Cycle Time (tCKAVGmin), MTB units
	offTCKMax        = 0x013 // Maximum Cycle Time (tCKAVGmax), MTB units
	offCASLatencies  = 0x014 // Supported CAS Latencies, 4 bytes, CL7 base
	offTAAMin        = 0x018 // Minimum CAS Latency Time (tAAmin)
	offTRCDMin       = 0x019 // Minimum RAS to CAS Delay Time (tRCDmin)
	offTRPMin        = 0x01A // Minimum Row Precharge Delay Time (tRPmin)
	offTRASTRCHigh   = 0x01B // Upper nibbles for tRAS (3:0) and tRC (7:4)
	offTRASMinLow    = 0x01C // tRASmin, low byte
	offTRCMinLow     = 0x01D // tRCmin, low byte
	offTRFC1Min      = 0x01E // tRFC1min, 2 bytes little-endian
	offTFAWHigh      = 0x024 // tFAWmin, upper nibble
	offTFAWLow       = 0x025 // tFAWmin, low byte
	offTRRDSMin      = 0x026 // tRRD_Smin
	offTRRDLMin      = 0x027 // tRRD_Lmin
	offTCCDLMin      = 0x028 // tCCD_Lmin

	// Fine offsets (signed, FTB units), stored descending at the end of
	// the base section.
	offTRCFine  = 0x078
	offTRPFine  = 0x079
	offTRCDFine = 0x07A
	offTAAFine  = 0x07B
	offTCKFine  = 0x07D

	// Module-specific section (320-383)
	offMfgIDContinuation = 0x140 // Module Manufacturer ID, continuation code
	offMfgIDCode         = 0x141 // Module Manufacturer ID, code with parity
	offMfgLocation       = 0x142 // Module Manufacturing Location
	offMfgYear           = 0x143 // Module Manufacturing Date, year (BCD)
	offMfgWeek           = 0x144 // Module Manufacturing Date, week (BCD)
	offSerialNumber      = 0x145 // Module Serial Number, 4 bytes
	offPartNumber        = 0x149 // Module Part Number, 20 ASCII bytes
	offRevisionCode      = 0x15D // Module Revision Code

	partNumberLen = 20
	serialLen     = 4
)

// DRAM device type sentinel.
const DeviceTypeDDR4 = 0x0C

// Medium timebase selection, byte 0x011 bits 3:2. The fine timebase is
// fixed at 1/256 ns.
var mtbTable = map[uint64]float64{
	0: 0.125, // 1/8 ns
	1: 0.25,  // 1/4 ns
	2: 1.0,   // 1 ns
}

const ftbNs = 1.0 / 256

// Field descriptors for the packed sub-byte values. Whole-byte and
// multi-byte reads go through the same Field codec so the offsets above
// stay the single source of truth.
var (
	fieldDramType    = Field{Name: "dram_type", Offset: offDramType, Bytes: 1}
	fieldModuleType  = Field{Name: "module_type", Offset: offModuleType, Bytes: 1, Mask: 0x0F}
	fieldDensityCode = Field{Name: "density", Offset: offDensityBanks, Bytes: 1, Mask: 0x0F}
	fieldBankAddr    = Field{Name: "bank_address_bits", Offset: offDensityBanks, Bytes: 1, Mask: 0x03, Shift: 4}
	fieldBankGroups  = Field{Name: "bank_group_bits", Offset: offDensityBanks, Bytes: 1, Mask: 0x03, Shift: 6}
	fieldColBits     = Field{Name: "column_bits", Offset: offAddressing, Bytes: 1, Mask: 0x07}
	fieldRowBits     = Field{Name: "row_bits", Offset: offAddressing, Bytes: 1, Mask: 0x07, Shift: 3}
	fieldDiePerPkg   = Field{Name: "die_per_package", Offset: offPackageType, Bytes: 1, Mask: 0x07, Shift: 4}
	fieldDeviceWidth = Field{Name: "device_width", Offset: offModuleOrg, Bytes: 1, Mask: 0x07}
	fieldRanks       = Field{Name: "ranks", Offset: offModuleOrg, Bytes: 1, Mask: 0x07, Shift: 3}
	fieldBusWidth    = Field{Name: "bus_width", Offset: offBusWidth, Bytes: 1, Mask: 0x07}
	fieldTimebase    = Field{Name: "timebase", Offset: offTimebases, Bytes: 1, Mask: 0x03, Shift: 2}
	fieldTRFC1       = Field{Name: "trfc1", Offset: offTRFC1Min, Bytes: 2}

	textPartNumber = Text{Name: "part_number", Offset: offPartNumber, Len: partNumberLen, Pad: ' '}
)
