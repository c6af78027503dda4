package programmer

import (
	"time"

	"github.com/sstallion/go-hid"
)

// Device is the raw HID report channel to the programmer. The hidapi
// implementation below satisfies it; tests substitute a fake.
type Device interface {
	Write(p []byte) (int, error)
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Opener locates and claims a programmer by USB IDs.
type Opener func(vendorID, productID uint16) (Device, error)

// openHID is the default Opener, backed by hidapi.
func openHID(vendorID, productID uint16) (Device, error) {
	if err := hid.Init(); err != nil {
		return nil, err
	}
	attached := false
	_ = hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		attached = true
		return nil
	})
	if !attached {
		return nil, &DeviceNotFoundError{VendorID: vendorID, ProductID: productID}
	}
	dev, err := hid.OpenFirst(vendorID, productID)
	if err != nil {
		// The device is enumerable but cannot be claimed, so another
		// process holds the interface.
		return nil, &DeviceBusyError{Reason: err.Error()}
	}
	return dev, nil
}
