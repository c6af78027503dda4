package spd

import "encoding/binary"

// JEDEC SPD integrity check: CRC16 with polynomial 0x1021, initial value
// zero (CRC-16/XMODEM), computed over the base configuration section.
const (
	crcPoly = 0x1021

	// Base section coverage and storage, per the DDR4 SPD layout.
	baseCRCStart = 0x000
	baseCRCEnd   = 0x07E // exclusive; CRC covers bytes 0-125
	baseCRCLSB   = 0x07E
	baseCRCMSB   = 0x07F
)

// CRC16 computes the JEDEC SPD CRC over data.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ComputeChecksum computes the base-section CRC for the image.
func ComputeChecksum(im *Image) uint16 {
	return CRC16(im[baseCRCStart:baseCRCEnd])
}

// StoredChecksum returns the checksum recorded in the image.
func StoredChecksum(im *Image) uint16 {
	return binary.LittleEndian.Uint16(im[baseCRCLSB : baseCRCMSB+1])
}

// UpdateChecksum recomputes the base-section CRC and stores it in place.
func UpdateChecksum(im *Image) {
	binary.LittleEndian.PutUint16(im[baseCRCLSB:baseCRCMSB+1], ComputeChecksum(im))
}
