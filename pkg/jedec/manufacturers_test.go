package jedec

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		bank  int
		index uint8
		want  string
	}{
		{"samsung stripped parity", 1, 0x4E, "Samsung"},
		{"samsung with parity", 1, 0xCE, "Samsung"},
		{"sk hynix", 1, 0x2D, "SK Hynix"},
		{"micron", 1, 0x2C, "Micron Technology"},
		{"kingston", 2, 0x18, "Kingston"},
		{"corsair", 2, 0x1E, "Corsair"},
		{"gskill", 3, 0x4D, "G.Skill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.bank, tt.index)
			if !ok {
				t.Fatalf("Lookup(%d, 0x%02X) not found", tt.bank, tt.index)
			}
			if got != tt.want {
				t.Errorf("Lookup(%d, 0x%02X) = %s, want %s", tt.bank, tt.index, got, tt.want)
			}
		})
	}
}

func TestNameUnknown(t *testing.T) {
	if got := Name(12, 0x33); got != "Unknown (bank 12, 0x33)" {
		t.Errorf("Name() = %q", got)
	}
}

func TestIDRoundTrip(t *testing.T) {
	// Corsair appears in exactly one bank, so the reverse lookup is
	// deterministic.
	continuation, code, ok := ID("Corsair")
	if !ok {
		t.Fatal("ID(Corsair) not found")
	}

	bank := int(continuation&0x7F) + 1
	if bank != 2 {
		t.Errorf("bank = %d, want 2", bank)
	}
	if name, _ := Lookup(bank, code); name != "Corsair" {
		t.Errorf("round-trip = %s, want Corsair", name)
	}
}

func TestIDLowestBank(t *testing.T) {
	// Vendors listed in several banks must resolve to the lowest one so
	// repeated lookups always encode the same bytes.
	tests := []struct {
		name     string
		wantBank int
		wantCode uint8
	}{
		{"Samsung", 1, 0xCE},
		{"SK Hynix", 1, 0xAD},
		{"Micron", 7, 0x2C},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			continuation, code, ok := ID(tt.name)
			if !ok {
				t.Fatalf("ID(%s) not found", tt.name)
			}
			if bank := int(continuation&0x7F) + 1; bank != tt.wantBank {
				t.Errorf("bank = %d, want %d", bank, tt.wantBank)
			}
			if code != tt.wantCode {
				t.Errorf("code = 0x%02X, want 0x%02X", code, tt.wantCode)
			}
		})
	}
}

func TestIDUnknown(t *testing.T) {
	if _, _, ok := ID("No Such Vendor"); ok {
		t.Error("ID() found a vendor that is not in the table")
	}
}

func TestWithParity(t *testing.T) {
	tests := []struct {
		in, want uint8
	}{
		{0x4E, 0xCE}, // four ones, parity bit set
		{0x2C, 0x2C}, // three ones, already odd
		{0x00, 0x80},
		{0x7F, 0x7F}, // seven ones, already odd
	}
	for _, tt := range tests {
		if got := withParity(tt.in); got != tt.want {
			t.Errorf("withParity(0x%02X) = 0x%02X, want 0x%02X", tt.in, got, tt.want)
		}
	}
}
