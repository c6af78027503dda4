package spd

import (
	"fmt"
	"os"
)

// SPD image geometry. The 512-byte image is addressed by the programmer
// as two 256-byte pages, but the page split carries no meaning inside
// the SPD layout itself.
const (
	Size     = 512
	PageSize = 256
	Pages    = Size / PageSize
)

// Image is a raw 512-byte SPD image, the sole byte-accurate
// representation of on-device state. Decoded records are transient
// views over an Image and are always re-derivable from it.
type Image [Size]byte

// InvalidSizeError indicates that a buffer or file is not exactly 512 bytes.
type InvalidSizeError struct {
	Size int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid SPD image size: %d bytes, expected %d", e.Size, Size)
}

// FromBytes copies b into a new Image. Buffers that are not exactly
// 512 bytes are rejected before any decoding takes place.
func FromBytes(b []byte) (*Image, error) {
	if len(b) != Size {
		return nil, &InvalidSizeError{Size: len(b)}
	}
	im := &Image{}
	copy(im[:], b)
	return im, nil
}

// ReadFile loads a raw .bin dump. The file must be exactly 512 bytes
// with no framing or metadata.
func ReadFile(path string) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SPD image: %w", err)
	}
	return FromBytes(b)
}

// WriteFile stores the image as a raw .bin dump, byte-for-byte identical
// to what the programmer reads from or writes to hardware.
func (im *Image) WriteFile(path string) error {
	if err := os.WriteFile(path, im[:], 0o644); err != nil {
		return fmt.Errorf("failed to write SPD image: %w", err)
	}
	return nil
}

// Clone returns an independent copy of the image.
func (im *Image) Clone() *Image {
	out := *im
	return &out
}

// Page returns the n'th 256-byte page as a slice into the image.
func (im *Image) Page(n int) []byte {
	return im[n*PageSize : (n+1)*PageSize]
}

// Diff returns the offsets at which the two images differ.
func (im *Image) Diff(other *Image) []int {
	var diffs []int
	for i := range im {
		if im[i] != other[i] {
			diffs = append(diffs, i)
		}
	}
	return diffs
}
