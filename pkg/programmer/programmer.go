// Package programmer drives USB-HID SPD programmers that bridge to the
// module's EEPROM over I2C. It transfers full 512-byte DDR4 images in
// 8-byte blocks across the EEPROM's two 256-byte pages, with retry and
// verification suited to flaky pogo-pin contacts.
package programmer

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mscrnt/spd_studio/pkg/spd"
)

const blocksPerPage = spd.PageSize / blockSize

// Session is an open connection to a programmer. It is safe for
// concurrent use; a transfer started while another is running fails
// with DeviceBusyError rather than interleaving on the wire.
type Session struct {
	dev      Device
	cfg      config
	firmware string
	busy     atomic.Bool
}

// Connect claims the programmer and performs the firmware handshake.
func Connect(opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	dev, err := cfg.opener(cfg.vendorID, cfg.productID)
	if err != nil {
		return nil, err
	}
	s := &Session{dev: dev, cfg: cfg}
	fw, err := s.handshake()
	if err != nil {
		dev.Close()
		return nil, err
	}
	s.firmware = fw
	s.logf("connected, firmware %s", fw)
	return s, nil
}

// FirmwareVersion returns the banner reported during the handshake.
func (s *Session) FirmwareVersion() string {
	return s.firmware
}

// Close releases the device.
func (s *Session) Close() error {
	return s.dev.Close()
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return &DeviceBusyError{Reason: "transfer already in progress"}
	}
	return nil
}

func (s *Session) release() {
	s.busy.Store(false)
}

func (s *Session) logf(format string, v ...interface{}) {
	if s.cfg.logger != nil {
		s.cfg.logger.Printf(format, v...)
	}
}

func (s *Session) report(done, total int) {
	if s.cfg.progress != nil {
		s.cfg.progress(Progress{BytesTransferred: done, TotalBytes: total})
	}
}

// sendCommand writes one command report, waits out the device's
// processing delay, and returns the ASCII payload of the response.
func (s *Session) sendCommand(cmd string, delay time.Duration) (string, error) {
	if _, err := s.dev.Write(buildReport(cmd)); err != nil {
		return "", err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	buf := make([]byte, reportSize)
	n, err := s.dev.ReadWithTimeout(buf, s.cfg.readTimeout)
	if err != nil {
		return "", err
	}
	return printable(buf[:n]), nil
}

func (s *Session) handshake() (string, error) {
	resp, err := s.sendCommand(cmdHandshake, s.cfg.commandDelay)
	if err != nil {
		return "", err
	}
	if !strings.Contains(resp, "VER") {
		return "", &HandshakeError{Response: resp}
	}
	return resp, nil
}

func (s *Session) selectPage(page int) error {
	_, err := s.sendCommand(pageSelectCmd(page), s.cfg.pageSettleDelay)
	return err
}

// readBlock reads one 8-byte block at a page-relative offset. A block
// that cannot be parsed after the configured retries comes back as
// zeroes; the page-level zero check catches a dead contact.
func (s *Session) readBlock(offset int) []byte {
	cmd := blockReadCmd(offset)
	for attempt := 0; attempt < s.cfg.blockRetries; attempt++ {
		resp, err := s.sendCommand(cmd, s.cfg.commandDelay)
		if err == nil {
			if data, perr := parseBlockData(resp, blockSize); perr == nil {
				return data
			}
		}
		s.logf("block read at 0x%02X failed (attempt %d/%d)", offset, attempt+1, s.cfg.blockRetries)
	}
	return make([]byte, blockSize)
}

// readPageOnce fills dst with one pass over a 256-byte page.
// progressBase is the byte position of the page start in the full
// image; a negative value suppresses progress reporting, which the
// write verification pass uses.
func (s *Session) readPageOnce(ctx context.Context, page int, dst []byte, progressBase int) error {
	if err := s.selectPage(page); err != nil {
		return err
	}
	for blk := 0; blk < blocksPerPage; blk++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset := blk * blockSize
		copy(dst[offset:], s.readBlock(offset))
		if progressBase >= 0 {
			s.report(progressBase+offset+blockSize, spd.Size)
		}
	}
	return nil
}

// readPage reads a page, retrying whole-page when the result is all
// zeroes. A genuinely blank EEPROM still has its checksum and type
// bytes, so an all-zero page means the contact is bad.
func (s *Session) readPage(ctx context.Context, page int, dst []byte) error {
	attempts := 1 + s.cfg.pageRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if err := s.readPageOnce(ctx, page, dst, page*spd.PageSize); err != nil {
			return err
		}
		if !allZero(dst) {
			return nil
		}
		s.logf("page %d read all zeroes, retrying (%d/%d)", page, attempt+1, attempts)
	}
	return &ReadFaultError{Page: page, Attempts: attempts}
}

// ReadImage reads the full SPD image from the attached module. The
// context is checked at block boundaries, so cancellation leaves the
// device in a consistent state.
func (s *Session) ReadImage(ctx context.Context) (*spd.Image, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	buf := make([]byte, spd.Size)
	for page := 0; page < spd.Pages; page++ {
		if err := s.readPage(ctx, page, buf[page*spd.PageSize:(page+1)*spd.PageSize]); err != nil {
			return nil, err
		}
	}
	return spd.FromBytes(buf)
}

// WriteImage writes the full image to the module and verifies each
// page by reading it back. Failed verification is not retried; the
// caller decides whether to attempt the write again.
func (s *Session) WriteImage(ctx context.Context, img *spd.Image) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	for page := 0; page < spd.Pages; page++ {
		if err := s.writePage(ctx, page, img); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) writePage(ctx context.Context, page int, img *spd.Image) error {
	if err := s.selectPage(page); err != nil {
		return err
	}
	base := page * spd.PageSize
	for blk := 0; blk < blocksPerPage; blk++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset := blk * blockSize
		data := img[base+offset : base+offset+blockSize]
		if _, err := s.sendCommand(blockWriteCmd(offset, data), s.cfg.writeDelay); err != nil {
			return err
		}
		s.report(base+offset+blockSize, spd.Size)
	}

	readback := make([]byte, spd.PageSize)
	if err := s.readPageOnce(ctx, page, readback, -1); err != nil {
		return err
	}
	for i, got := range readback {
		if want := img[base+i]; got != want {
			return &WriteVerificationError{Offset: base + i, Expected: want, Actual: got}
		}
	}
	return nil
}
