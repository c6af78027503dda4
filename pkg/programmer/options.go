package programmer

import "time"

// Default USB IDs of the supported programmer.
const (
	DefaultVendorID  = 0x0483
	DefaultProductID = 0x1230
)

// Progress reports transfer position at block granularity.
type Progress struct {
	BytesTransferred int
	TotalBytes       int
}

// ProgressFunc receives transfer progress. It is called from the
// transfer goroutine and must not block.
type ProgressFunc func(Progress)

// Logger receives transport diagnostics. The stdlib *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

type config struct {
	vendorID  uint16
	productID uint16

	commandDelay    time.Duration
	writeDelay      time.Duration
	pageSettleDelay time.Duration
	readTimeout     time.Duration

	blockRetries int
	pageRetries  int

	progress ProgressFunc
	logger   Logger
	opener   Opener
}

func defaultConfig() config {
	return config{
		vendorID:        DefaultVendorID,
		productID:       DefaultProductID,
		commandDelay:    20 * time.Millisecond,
		writeDelay:      100 * time.Millisecond,
		pageSettleDelay: 200 * time.Millisecond,
		readTimeout:     500 * time.Millisecond,
		blockRetries:    3,
		pageRetries:     2,
		opener:          openHID,
	}
}

// Option adjusts session behavior.
type Option func(*config)

// WithVendorID overrides the USB vendor ID to probe for.
func WithVendorID(id uint16) Option {
	return func(c *config) { c.vendorID = id }
}

// WithProductID overrides the USB product ID to probe for.
func WithProductID(id uint16) Option {
	return func(c *config) { c.productID = id }
}

// WithCommandDelay overrides the pause between sending a command and
// reading its response.
func WithCommandDelay(d time.Duration) Option {
	return func(c *config) { c.commandDelay = d }
}

// WithWriteDelay overrides the pause after each block write, which
// covers the EEPROM's internal write cycle.
func WithWriteDelay(d time.Duration) Option {
	return func(c *config) { c.writeDelay = d }
}

// WithPageSettleDelay overrides the pause after a page select.
func WithPageSettleDelay(d time.Duration) Option {
	return func(c *config) { c.pageSettleDelay = d }
}

// WithReadTimeout overrides the HID input report timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

// WithBlockRetries sets how many times a failed block read is retried
// before the block is treated as zeroes.
func WithBlockRetries(n int) Option {
	return func(c *config) { c.blockRetries = n }
}

// WithPageRetries sets how many extra attempts an all-zero page read
// gets before it is reported as a fault.
func WithPageRetries(n int) Option {
	return func(c *config) { c.pageRetries = n }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) { c.progress = fn }
}

// WithLogger registers a diagnostics logger.
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOpener overrides device discovery, used by tests to substitute a
// fake device.
func WithOpener(open Opener) Option {
	return func(c *config) { c.opener = open }
}
