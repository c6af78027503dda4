package programmer

import (
	"fmt"
	"strconv"
	"strings"
)

// Wire protocol for CH341-style SPD programmers. Commands are ASCII
// strings carried in 64-byte HID output reports; responses come back as
// printable ASCII in input reports.
//
// The EEPROM is addressed at the standard SPD address 0x50. The 512-byte
// image is exposed as two 256-byte pages; switching pages is a write to
// the SPA0/SPA1 pseudo-addresses encoded in the page-select opcodes.
const (
	reportSize = 64
	blockSize  = 8

	// I2C target address of the SPD EEPROM.
	eepromAddr = 0x50

	cmdHandshake  = "BT-VER0010"
	cmdSelectPage = "BT-I2C2WR3%d0001" // 36 = page 0 (SPA0), 37 = page 1 (SPA1)
)

// pageSelectCmd returns the fixed opcode that switches the EEPROM to
// the given page.
func pageSelectCmd(page int) string {
	return fmt.Sprintf(cmdSelectPage, 6+page)
}

// blockReadCmd builds a read of blockSize bytes at the page-relative
// offset.
func blockReadCmd(offset int) string {
	return fmt.Sprintf("BT-I2C2RD%02X%02X%02X", eepromAddr, offset, blockSize)
}

// blockWriteCmd builds a write of len(data) bytes at the page-relative
// offset, with the payload hex-encoded into the command string.
func blockWriteCmd(offset int, data []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT-I2C2WR%02X%02X%02X", eepromAddr, offset, len(data))
	for _, b := range data {
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// parseBlockData extracts n data bytes from a read response. The
// programmer answers with ":" followed by space-separated hex pairs;
// anything else is a malformed response.
func parseBlockData(resp string, n int) ([]byte, error) {
	if !strings.HasPrefix(resp, ":") {
		return nil, fmt.Errorf("malformed block response %q", resp)
	}
	out := make([]byte, 0, n)
	for _, tok := range strings.Fields(resp[1:]) {
		if len(tok) != 2 {
			continue
		}
		b, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(b))
		if len(out) == n {
			return out, nil
		}
	}
	return nil, fmt.Errorf("short block response: got %d of %d bytes", len(out), n)
}

// buildReport packs a command string into a HID output report with a
// leading zero report ID.
func buildReport(cmd string) []byte {
	report := make([]byte, reportSize+1)
	copy(report[1:], cmd)
	return report
}

// printable filters a raw input report down to its ASCII payload.
func printable(raw []byte) string {
	var sb strings.Builder
	for _, b := range raw {
		if b >= 0x20 && b <= 0x7E {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// allZero reports whether every byte of a page buffer is zero, the
// signature of a failed EEPROM contact.
func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
