package spd

import (
	"errors"
	"testing"
)

func TestFieldMaskedWrite(t *testing.T) {
	im := &Image{}
	im[offModuleOrg] = 0xC9 // ranks 1, width 1, upper bits set

	// Writing the width sub-field must leave the rank bits and the
	// reserved upper bits alone.
	if err := fieldDeviceWidth.PutUint(im, 2); err != nil {
		t.Fatalf("PutUint() error: %v", err)
	}
	if im[offModuleOrg] != 0xCA {
		t.Errorf("byte = 0x%02X, want 0xCA", im[offModuleOrg])
	}
	if fieldDeviceWidth.Uint(im) != 2 {
		t.Errorf("Uint() = %d, want 2", fieldDeviceWidth.Uint(im))
	}
	if fieldRanks.Uint(im) != 1 {
		t.Errorf("rank bits disturbed: %d", fieldRanks.Uint(im))
	}
}

func TestFieldRangeCheck(t *testing.T) {
	im := &Image{}

	var re *RangeError
	if err := fieldDeviceWidth.PutUint(im, 8); !errors.As(err, &re) {
		t.Fatalf("error = %v, want RangeError", err)
	}
	if re.Max != 7 {
		t.Errorf("Max = %d, want 7", re.Max)
	}
	if im[offModuleOrg] != 0 {
		t.Error("failed write modified the image")
	}
}

func TestFieldMultiByte(t *testing.T) {
	im := &Image{}
	if err := fieldTRFC1.PutUint(im, 0x0AF0); err != nil {
		t.Fatalf("PutUint() error: %v", err)
	}
	if im[offTRFC1Min] != 0xF0 || im[offTRFC1Min+1] != 0x0A {
		t.Errorf("bytes = %02X %02X, want F0 0A", im[offTRFC1Min], im[offTRFC1Min+1])
	}
	if fieldTRFC1.Uint(im) != 0x0AF0 {
		t.Errorf("Uint() = 0x%04X, want 0x0AF0", fieldTRFC1.Uint(im))
	}
}

func TestSigned(t *testing.T) {
	tests := []struct {
		in   byte
		want int
	}{
		{0x00, 0},
		{0x01, 1},
		{0x7F, 127},
		{0x80, -128},
		{0xFF, -1},
	}
	for _, tt := range tests {
		if got := signed(tt.in); got != tt.want {
			t.Errorf("signed(0x%02X) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTextGetDropsGarbage(t *testing.T) {
	im := &Image{}
	copy(im[offPartNumber:], []byte("ABC\x00\xFFDEF            "))

	if got := textPartNumber.Get(im); got != "ABCDEF" {
		t.Errorf("Get() = %q, want ABCDEF", got)
	}
}
