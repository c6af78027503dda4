package spd

import (
	"encoding/binary"
	"fmt"
	"math"
)

// XMP 2.0 block layout, stored in the reserved range from 0x180.
const (
	xmpHeaderOff  = 0x180
	xmpMagic0     = 0x0C
	xmpMagic1     = 0x4A
	xmpEnablesOff = 0x182 // bit 0 = profile 1, bit 1 = profile 2
	xmpVersionOff = 0x183 // 0x20 = revision 2.0

	xmpProfile1Off = 0x189
	xmpProfile2Off = 0x1B8
	xmpProfileSize = 47

	// Profile-relative offsets.
	xpVoltage  = 0
	xpTCK      = 1
	xpTCKFine  = 2
	xpCL       = 6
	xpTRCD     = 7
	xpTRP      = 8
	xpHighs    = 9 // tRC high nibble (7:4), tRAS high nibble (3:0)
	xpTRASLow  = 10
	xpTRCLow   = 11
	xpTRFC1    = 12 // 2 bytes little-endian
	xpTFAWHigh = 14
	xpTFAWLow  = 15
	xpTRRDS    = 16
	xpTRRDL    = 17
	xpCRC      = 45 // 2 bytes little-endian, covers profile bytes 0-44

	xmpVoltageBase = 1.20
	xmpVoltageStep = 0.005
	xmpVoltageMask = 0x3F
)

var xmpProfileOffsets = [2]int{xmpProfile1Off, xmpProfile2Off}

// XMPVersion is the revision byte split into major/minor nibbles.
type XMPVersion uint8

func (v XMPVersion) String() string {
	return fmt.Sprintf("%d.%d", v>>4, v&0x0F)
}

// XMPProfile is one decoded overclocking profile. Timing values are in
// nanoseconds via the same MTB/fine scheme as the base section.
type XMPProfile struct {
	Voltage float64
	Timing  Timing

	// ChecksumValid reports the per-profile CRC state; it never affects
	// the base section's validity.
	ChecksumValid bool
}

// Frequency returns the profile's transfer rate in MT/s.
func (p *XMPProfile) Frequency() int {
	if p.Timing.TCK <= 0 {
		return 0
	}
	return int(math.Round(2000 / p.Timing.TCK))
}

func (p *XMPProfile) String() string {
	return fmt.Sprintf("%d MT/s @ %.3fV (%s)", p.Frequency(), p.Voltage, p.Timing.String())
}

// XMP is the decoded profile block. Absent XMP is the common case and
// is not an error: Present is simply false.
type XMP struct {
	Present  bool
	Version  XMPVersion
	Profiles [2]*XMPProfile // nil when the slot is disabled or blank
}

// DecodeXMP reads the XMP block from the image. Validity is tracked per
// profile; a corrupt profile 2 does not hide profile 1.
func DecodeXMP(im *Image) XMP {
	x := XMP{}
	if im[xmpHeaderOff] != xmpMagic0 || im[xmpHeaderOff+1] != xmpMagic1 {
		return x
	}
	x.Present = true
	x.Version = XMPVersion(im[xmpVersionOff])

	enables := im[xmpEnablesOff]
	for slot := 0; slot < 2; slot++ {
		if enables&(1<<slot) == 0 {
			continue
		}
		x.Profiles[slot] = decodeXMPProfile(im, xmpProfileOffsets[slot])
	}
	return x
}

func decodeXMPProfile(im *Image, off int) *XMPProfile {
	vb := im[off+xpVoltage]
	if vb == 0x00 || vb == 0xFF {
		// Enabled bit set but the slot is blank; treat as absent.
		return nil
	}

	mtb := mtbNs(im)
	p := &XMPProfile{
		Voltage: xmpVoltageBase + float64(vb&xmpVoltageMask)*xmpVoltageStep,
	}

	p.Timing.TCK = float64(im[off+xpTCK])*mtb + float64(signed(im[off+xpTCKFine]))*ftbNs
	p.Timing.CL = int(im[off+xpCL] & 0x1F)
	p.Timing.TRCD = float64(im[off+xpTRCD]) * mtb
	p.Timing.TRP = float64(im[off+xpTRP]) * mtb

	highs := im[off+xpHighs]
	p.Timing.TRAS = float64(uint16(highs&0x0F)<<8|uint16(im[off+xpTRASLow])) * mtb
	p.Timing.TRC = float64(uint16(highs>>4)<<8|uint16(im[off+xpTRCLow])) * mtb
	p.Timing.TRFC1 = float64(binary.LittleEndian.Uint16(im[off+xpTRFC1:off+xpTRFC1+2])) * mtb
	p.Timing.TFAW = float64(uint16(im[off+xpTFAWHigh]&0x0F)<<8|uint16(im[off+xpTFAWLow])) * mtb
	p.Timing.TRRDS = float64(im[off+xpTRRDS]) * mtb
	p.Timing.TRRDL = float64(im[off+xpTRRDL]) * mtb

	stored := binary.LittleEndian.Uint16(im[off+xpCRC : off+xpCRC+2])
	p.ChecksumValid = stored == CRC16(im[off:off+xpCRC])
	return p
}

// SetXMPProfile encodes a profile into the given slot (0 or 1). When
// the image has no XMP header yet, the header magic, enables, and
// revision are written first so the profile bytes are meaningful. The
// per-profile CRC is recomputed on every write.
func (e *Editor) SetXMPProfile(slot int, p XMPProfile) error {
	if slot < 0 || slot > 1 {
		return &RangeError{Field: "xmp_profile", Value: uint64(slot), Max: 1}
	}
	if p.Voltage < xmpVoltageBase || p.Voltage > xmpVoltageBase+xmpVoltageMask*xmpVoltageStep {
		return &RangeError{Field: "xmp_voltage", Value: uint64(p.Voltage * 1000), Max: uint64((xmpVoltageBase + xmpVoltageMask*xmpVoltageStep) * 1000)}
	}

	im := e.img
	mtb := mtbNs(im)

	base := math.Round(p.Timing.TCK / mtb)
	if base <= 0 || base > 0xFF {
		return &RangeError{Field: "xmp_tck", Value: uint64(math.Abs(base)), Max: 0xFF}
	}
	fine := math.Round((p.Timing.TCK - base*mtb) / ftbNs)
	if fine < -128 || fine > 127 {
		return &RangeError{Field: "xmp_tck_fine", Value: uint64(math.Abs(fine)), Max: 127}
	}
	if p.Timing.CL < 0 || p.Timing.CL > 0x1F {
		return &RangeError{Field: "xmp_cl", Value: uint64(p.Timing.CL), Max: 0x1F}
	}

	trcd, err := mtbUnits("xmp_trcd", p.Timing.TRCD, mtb, 0xFF)
	if err != nil {
		return err
	}
	trp, err := mtbUnits("xmp_trp", p.Timing.TRP, mtb, 0xFF)
	if err != nil {
		return err
	}
	tras, err := mtbUnits("xmp_tras", p.Timing.TRAS, mtb, 0xFFF)
	if err != nil {
		return err
	}
	trc, err := mtbUnits("xmp_trc", p.Timing.TRC, mtb, 0xFFF)
	if err != nil {
		return err
	}
	trfc1, err := mtbUnits("xmp_trfc1", p.Timing.TRFC1, mtb, 0xFFFF)
	if err != nil {
		return err
	}
	tfaw, err := mtbUnits("xmp_tfaw", p.Timing.TFAW, mtb, 0xFFF)
	if err != nil {
		return err
	}
	trrds, err := mtbUnits("xmp_trrds", p.Timing.TRRDS, mtb, 0xFF)
	if err != nil {
		return err
	}
	trrdl, err := mtbUnits("xmp_trrdl", p.Timing.TRRDL, mtb, 0xFF)
	if err != nil {
		return err
	}

	if im[xmpHeaderOff] != xmpMagic0 || im[xmpHeaderOff+1] != xmpMagic1 {
		im[xmpHeaderOff] = xmpMagic0
		im[xmpHeaderOff+1] = xmpMagic1
		im[xmpEnablesOff] = 0
		im[xmpVersionOff] = 0x20
	}

	off := xmpProfileOffsets[slot]

	vcode := math.Round((p.Voltage - xmpVoltageBase) / xmpVoltageStep)
	im[off+xpVoltage] = byte(vcode)
	im[off+xpTCK] = byte(base)
	im[off+xpTCKFine] = byte(int8(fine))
	im[off+xpCL] = byte(p.Timing.CL)
	im[off+xpTRCD] = byte(trcd)
	im[off+xpTRP] = byte(trp)

	im[off+xpHighs] = byte(trc>>8)<<4 | byte(tras>>8)&0x0F
	im[off+xpTRASLow] = byte(tras)
	im[off+xpTRCLow] = byte(trc)

	binary.LittleEndian.PutUint16(im[off+xpTRFC1:off+xpTRFC1+2], trfc1)
	im[off+xpTFAWHigh] = byte(tfaw>>8) & 0x0F
	im[off+xpTFAWLow] = byte(tfaw)
	im[off+xpTRRDS] = byte(trrds)
	im[off+xpTRRDL] = byte(trrdl)

	binary.LittleEndian.PutUint16(im[off+xpCRC:off+xpCRC+2], CRC16(im[off:off+xpCRC]))
	im[xmpEnablesOff] |= 1 << slot
	return nil
}

// ClearXMPProfile disables a slot and blanks its bytes. The header is
// left in place so the other slot survives.
func (e *Editor) ClearXMPProfile(slot int) error {
	if slot < 0 || slot > 1 {
		return &RangeError{Field: "xmp_profile", Value: uint64(slot), Max: 1}
	}
	im := e.img
	if im[xmpHeaderOff] != xmpMagic0 || im[xmpHeaderOff+1] != xmpMagic1 {
		return nil
	}
	off := xmpProfileOffsets[slot]
	for i := 0; i < xmpProfileSize; i++ {
		im[off+i] = 0
	}
	im[xmpEnablesOff] &^= 1 << slot
	return nil
}

// mtbUnits converts a nanosecond timing to medium timebase units,
// failing when the result does not fit the field.
func mtbUnits(field string, ns, mtb float64, max uint16) (uint16, error) {
	v := math.Round(ns / mtb)
	if v < 0 || v > float64(max) {
		return 0, &RangeError{Field: field, Value: uint64(math.Abs(v)), Max: uint64(max)}
	}
	return uint16(v), nil
}
