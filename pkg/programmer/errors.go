package programmer

import "fmt"

// DeviceNotFoundError is returned when no programmer with the
// configured vendor and product ID is attached.
type DeviceNotFoundError struct {
	VendorID  uint16
	ProductID uint16
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("programmer %04X:%04X not found", e.VendorID, e.ProductID)
}

// DeviceBusyError is returned when the programmer cannot be claimed,
// either because another process holds it or because a transfer is
// already running on this session.
type DeviceBusyError struct {
	Reason string
}

func (e *DeviceBusyError) Error() string {
	return fmt.Sprintf("programmer busy: %s", e.Reason)
}

// HandshakeError is returned when the device answers the version probe
// with something other than a firmware banner.
type HandshakeError struct {
	Response string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed: unexpected response %q", e.Response)
}

// ReadFaultError is returned when a page reads back as all zeroes on
// every attempt, which indicates a bad EEPROM contact rather than a
// genuinely blank page.
type ReadFaultError struct {
	Page     int
	Attempts int
}

func (e *ReadFaultError) Error() string {
	return fmt.Sprintf("page %d read all zeroes after %d attempts; check module seating", e.Page, e.Attempts)
}

// WriteVerificationError is returned when the readback after a write
// does not match the intended image. Offset is the first mismatching
// byte in the full 512-byte image.
type WriteVerificationError struct {
	Offset   int
	Expected byte
	Actual   byte
}

func (e *WriteVerificationError) Error() string {
	return fmt.Sprintf("verification failed at offset 0x%03X: wrote 0x%02X, read 0x%02X",
		e.Offset, e.Expected, e.Actual)
}
