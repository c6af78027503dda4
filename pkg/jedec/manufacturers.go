// Package jedec resolves JEP106 manufacturer IDs to vendor names.
//
// The table is consumed by callers that hold a raw SPD bank/index pair;
// the SPD parser itself never touches it, so the parser stays pure and
// testable without this data.
package jedec

import "fmt"

type bankID struct {
	bank  int
	index uint8
}

// Manufacturer IDs by (bank, index), index in its JEP106 transmission
// form with odd parity in bit 7. Banks are 1-based.
var manufacturers = map[bankID]string{
	// Bank 1
	{1, 0x01}: "AMD",
	{1, 0x04}: "Fujitsu",
	{1, 0x07}: "Hitachi",
	{1, 0x1C}: "Mitsubishi",
	{1, 0x1F}: "Atmel",
	{1, 0x20}: "STMicroelectronics",
	{1, 0x2C}: "Micron Technology",
	{1, 0x37}: "AMIC",
	{1, 0x89}: "Intel",
	{1, 0x8C}: "EON",
	{1, 0x98}: "Toshiba",
	{1, 0x9D}: "ISSI",
	{1, 0xA1}: "Fudan Microelectronics",
	{1, 0xAD}: "SK Hynix",
	{1, 0xBF}: "SST",
	{1, 0xC1}: "Infineon",
	{1, 0xC2}: "Macronix",
	{1, 0xCE}: "Samsung",
	{1, 0xDA}: "Winbond",

	// Bank 2
	{2, 0x0B}: "Nanya",
	{2, 0x25}: "Kingmax",
	{2, 0x45}: "SanDisk",
	{2, 0x4F}: "Transcend",
	{2, 0x51}: "Qimonda",
	{2, 0x7A}: "Apacer",
	{2, 0x83}: "Kingmax",
	{2, 0x94}: "ESMT",
	{2, 0x98}: "Kingston",
	{2, 0x9E}: "Corsair",
	{2, 0xB0}: "Sharp",
	{2, 0xBA}: "PNY",
	{2, 0xF7}: "Silicon Power",
	{2, 0xFE}: "ELPIDA",

	// Bank 3
	{3, 0x08}: "Crucial",
	{3, 0x4A}: "GeIL",
	{3, 0x7F}: "Patriot",
	{3, 0x9B}: "Mushkin",
	{3, 0xCB}: "A-DATA",
	{3, 0xCD}: "G.Skill",
	{3, 0xEF}: "Team Group",
	{3, 0xF1}: "Avant",

	// Bank 4
	{4, 0x03}: "OCZ",
	{4, 0x34}: "Super Talent",
	{4, 0x43}: "Ramaxel",
	{4, 0x85}: "Spectek",
	{4, 0xC8}: "Aeneon",
	{4, 0xEF}: "Crucial (Lexar)",

	// Bank 5
	{5, 0x51}: "SMART",
	{5, 0x9A}: "Swissbit",
	{5, 0x94}: "Innodisk",
	{5, 0xB3}: "ATP Electronics",

	// Bank 6
	{6, 0x43}: "Ramaxel Technology",
	{6, 0x51}: "SMART Modular",
	{6, 0x85}: "Wintec",
	{6, 0xC1}: "V-Color",
	{6, 0xCE}: "Samsung",

	// Bank 7
	{7, 0x2C}: "Micron",
	{7, 0xAD}: "SK Hynix",
	{7, 0xCE}: "Samsung",

	// Bank 8
	{8, 0x21}: "Longsys",
	{8, 0xC8}: "Shanghai Huahong",
	{8, 0xCE}: "Samsung",

	// Bank 9
	{9, 0x2C}: "Micron",
	{9, 0x48}: "UniIC",
	{9, 0xAD}: "SK Hynix",
	{9, 0xC9}: "ChangXin Memory (CXMT)",
	{9, 0xCA}: "Yangtze Memory (YMTC)",
	{9, 0xCE}: "Samsung",
}

// Lookup resolves a JEP106 bank (1-based) and index (parity bit
// stripped) to a vendor name. The second return is false when the pair
// is unknown.
func Lookup(bank int, index uint8) (string, bool) {
	name, ok := manufacturers[bankID{bank: bank, index: withParity(index)}]
	return name, ok
}

// Name resolves the pair to a display string, falling back to the raw
// hex form for unknown vendors.
func Name(bank int, index uint8) string {
	if name, ok := Lookup(bank, index); ok {
		return name
	}
	return fmt.Sprintf("Unknown (bank %d, 0x%02X)", bank, index&0x7F)
}

// ID performs the reverse lookup from a vendor name to its raw SPD
// byte pair: the continuation code (bank-1 with odd parity over the
// low 7 bits) and the index with its parity bit. Vendors listed in
// several banks resolve to the lowest bank. The second return is false
// when the vendor is not in the table.
func ID(name string) (continuation, code uint8, ok bool) {
	best := bankID{}
	for k, v := range manufacturers {
		if v != name {
			continue
		}
		if !ok || k.bank < best.bank {
			best = k
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return withParity(uint8(best.bank - 1)), best.index, true
}

// withParity sets bit 7 so the low byte has odd parity, the JEP106
// transmission form.
func withParity(v uint8) uint8 {
	v &= 0x7F
	ones := 0
	for i := 0; i < 7; i++ {
		if v&(1<<i) != 0 {
			ones++
		}
	}
	if ones%2 == 0 {
		v |= 0x80
	}
	return v
}
