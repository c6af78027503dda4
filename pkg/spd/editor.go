package spd

import (
	"fmt"
	"math"
)

// Editor applies field-level edits to a copy of a source image. It
// never reconstructs the image from scratch: every setter patches only
// the bytes of its own field, so reserved and vendor-specific ranges
// pass through bit-identical. The base-section checksum is recomputed
// on Commit when any covered byte was touched.
type Editor struct {
	img         *Image
	touchedBase bool
}

// NewEditor clones im and returns an editor over the clone. The source
// image is never mutated.
func NewEditor(im *Image) *Editor {
	return &Editor{img: im.Clone()}
}

func (e *Editor) touch(offset int) {
	if offset < baseCRCEnd {
		e.touchedBase = true
	}
}

// SetModuleType patches SPD byte 3 bits 3:0.
func (e *Editor) SetModuleType(mt ModuleType) error {
	if err := fieldModuleType.PutUint(e.img, uint64(mt)); err != nil {
		return err
	}
	e.touch(offModuleType)
	return nil
}

// SetPartNumber patches the 20-byte ASCII part number, space-padded.
func (e *Editor) SetPartNumber(s string) error {
	return textPartNumber.Put(e.img, s)
}

// SetSerialNumber patches the 4 raw serial bytes.
func (e *Editor) SetSerialNumber(sn [serialLen]byte) {
	copy(e.img[offSerialNumber:offSerialNumber+serialLen], sn[:])
}

// SetManufacturerID patches the continuation-code pair at bytes 320-321.
func (e *Editor) SetManufacturerID(id ManufacturerID) {
	e.img[offMfgIDContinuation] = id.Continuation
	e.img[offMfgIDCode] = id.Code
}

// SetManufactureDate patches the BCD year/week pair.
func (e *Editor) SetManufactureDate(d ManufactureDate) error {
	if d.Year < 2000 || d.Year > 2099 {
		return &RangeError{Field: "manufacture_year", Value: uint64(d.Year), Max: 2099}
	}
	if d.Week < 1 || d.Week > 53 {
		return &RangeError{Field: "manufacture_week", Value: uint64(d.Week), Max: 53}
	}
	yy := d.Year - 2000
	e.img[offMfgYear] = byte(yy/10)<<4 | byte(yy%10)
	e.img[offMfgWeek] = byte(d.Week/10)<<4 | byte(d.Week%10)
	return nil
}

// SetTCK encodes a cycle time in nanoseconds into the two-level MTB +
// fine-offset form using the image's selected timebase.
func (e *Editor) SetTCK(ns float64) error {
	return e.setFineTiming("tck", offTCKMin, offTCKFine, ns)
}

// SetTAA encodes the CAS latency time in nanoseconds.
func (e *Editor) SetTAA(ns float64) error {
	return e.setFineTiming("taa", offTAAMin, offTAAFine, ns)
}

// SetTRCD encodes the RAS-to-CAS delay in nanoseconds.
func (e *Editor) SetTRCD(ns float64) error {
	return e.setFineTiming("trcd", offTRCDMin, offTRCDFine, ns)
}

// SetTRP encodes the row precharge time in nanoseconds.
func (e *Editor) SetTRP(ns float64) error {
	return e.setFineTiming("trp", offTRPMin, offTRPFine, ns)
}

func (e *Editor) setFineTiming(name string, baseOff, fineOff int, ns float64) error {
	mtb := mtbNs(e.img)
	base := math.Round(ns / mtb)
	if base < 0 || base > 0xFF {
		return &RangeError{Field: name, Value: uint64(math.Abs(base)), Max: 0xFF}
	}
	fine := math.Round((ns - base*mtb) / ftbNs)
	if fine < -128 || fine > 127 {
		// The nearest base value leaves a residue the signed fine byte
		// cannot absorb.
		return &RangeError{Field: name + "_fine", Value: uint64(math.Abs(fine)), Max: 127}
	}
	e.img[baseOff] = byte(base)
	e.img[fineOff] = byte(int8(fine))
	e.touch(baseOff)
	return nil
}

// SetByte patches a single raw byte. Offsets outside the image fail
// with a RangeError.
func (e *Editor) SetByte(offset int, value byte) error {
	if offset < 0 || offset >= Size {
		return &RangeError{Field: "offset", Value: uint64(offset), Max: Size - 1}
	}
	e.img[offset] = value
	e.touch(offset)
	return nil
}

// Commit recomputes checksums for any touched covered range and returns
// the patched image. The editor stays usable; later commits return
// fresh copies.
func (e *Editor) Commit() *Image {
	if e.touchedBase {
		UpdateChecksum(e.img)
	}
	return e.img.Clone()
}

// Preview returns the working image without recomputing checksums.
// Useful for byte-level diff display; never write a previewed image to
// hardware.
func (e *Editor) Preview() *Image {
	return e.img.Clone()
}

// Modifications returns the byte-level differences against base as
// offset -> (old, new) pairs, in ascending offset order.
func Modifications(base, edited *Image) []Modification {
	var mods []Modification
	for _, off := range base.Diff(edited) {
		mods = append(mods, Modification{Offset: off, Old: base[off], New: edited[off]})
	}
	return mods
}

// Modification is a single byte change between two images.
type Modification struct {
	Offset   int
	Old, New byte
}

func (m Modification) String() string {
	return fmt.Sprintf("Offset 0x%03X: 0x%02X -> 0x%02X", m.Offset, m.Old, m.New)
}
