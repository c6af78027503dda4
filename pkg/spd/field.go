package spd

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Field describes a numeric value packed into the image: a byte offset,
// a width in bytes, and for sub-byte fields a mask and shift. Multi-byte
// fields are little-endian unless BigEndian is set. The codec is a pure
// interpreter over these descriptors; per-field decode logic lives in
// the field tables, not in ad-hoc accessors.
type Field struct {
	Name      string
	Offset    int
	Bytes     int
	Mask      uint8 // applied after Shift; zero means the whole byte
	Shift     uint8
	BigEndian bool
}

// RangeError indicates a value that does not fit the field it was
// written to. Writes never silently truncate.
type RangeError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %d out of range for field %s (max %d)", e.Value, e.Field, e.Max)
}

// EncodingError indicates text that cannot be encoded into an ASCII field.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode field %s: %s", e.Field, e.Reason)
}

// Uint reads the field from the image.
func (f Field) Uint(im *Image) uint64 {
	if f.Bytes <= 1 {
		v := im[f.Offset] >> f.Shift
		if f.Mask != 0 {
			v &= f.Mask
		}
		return uint64(v)
	}
	raw := im[f.Offset : f.Offset+f.Bytes]
	switch {
	case f.Bytes == 2 && f.BigEndian:
		return uint64(binary.BigEndian.Uint16(raw))
	case f.Bytes == 2:
		return uint64(binary.LittleEndian.Uint16(raw))
	case f.Bytes == 4 && f.BigEndian:
		return uint64(binary.BigEndian.Uint32(raw))
	default:
		return uint64(binary.LittleEndian.Uint32(raw))
	}
}

// max returns the largest value representable by the field.
func (f Field) max() uint64 {
	if f.Bytes <= 1 {
		if f.Mask != 0 {
			return uint64(f.Mask)
		}
		return 0xFF >> f.Shift
	}
	return 1<<(8*f.Bytes) - 1
}

// PutUint writes the field into the image, leaving all bits outside the
// field's mask untouched.
func (f Field) PutUint(im *Image, v uint64) error {
	if v > f.max() {
		return &RangeError{Field: f.Name, Value: v, Max: f.max()}
	}
	if f.Bytes <= 1 {
		mask := f.Mask
		if mask == 0 {
			mask = 0xFF >> f.Shift
		}
		cur := im[f.Offset]
		cur &^= mask << f.Shift
		cur |= uint8(v) << f.Shift
		im[f.Offset] = cur
		return nil
	}
	raw := im[f.Offset : f.Offset+f.Bytes]
	switch {
	case f.Bytes == 2 && f.BigEndian:
		binary.BigEndian.PutUint16(raw, uint16(v))
	case f.Bytes == 2:
		binary.LittleEndian.PutUint16(raw, uint16(v))
	case f.Bytes == 4 && f.BigEndian:
		binary.BigEndian.PutUint32(raw, uint32(v))
	default:
		binary.LittleEndian.PutUint32(raw, uint32(v))
	}
	return nil
}

// Text describes a fixed-length ASCII field padded with Pad.
type Text struct {
	Name   string
	Offset int
	Len    int
	Pad    byte
}

// Get reads the text field, dropping non-printable bytes and trailing padding.
func (t Text) Get(im *Image) string {
	var sb strings.Builder
	for _, b := range im[t.Offset : t.Offset+t.Len] {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		}
	}
	return strings.TrimRight(sb.String(), string(t.Pad))
}

// Put writes s into the text field, padding to the full length. Strings
// longer than the field or containing non-ASCII bytes are rejected.
func (t Text) Put(im *Image, s string) error {
	if len(s) > t.Len {
		return &EncodingError{Field: t.Name, Reason: fmt.Sprintf("%d characters exceed field length %d", len(s), t.Len)}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] >= 0x7F {
			return &EncodingError{Field: t.Name, Reason: fmt.Sprintf("non-ASCII byte 0x%02X at position %d", s[i], i)}
		}
	}
	for i := 0; i < t.Len; i++ {
		if i < len(s) {
			im[t.Offset+i] = s[i]
		} else {
			im[t.Offset+i] = t.Pad
		}
	}
	return nil
}

// signed reinterprets an SPD fine-offset byte as a signed value.
func signed(b byte) int {
	if b < 0x80 {
		return int(b)
	}
	return int(b) - 256
}
