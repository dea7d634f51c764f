package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/karalabe/hid"
	"github.com/rs/zerolog"
)

const (
	// LedgerVendorID is the USB vendor ID of Ledger devices.
	LedgerVendorID uint16 = 0x2c97

	// ledgerUsagePage marks the HID interface carrying APDUs.
	ledgerUsagePage uint16 = 0xffa0
)

// HID is a channel to a Ledger device over USB-HID.
type HID struct {
	dev        io.ReadWriter
	closeFn    func() error
	packetSize int
	log        zerolog.Logger
	guard      guard
}

// HIDOption configures a HID channel.
type HIDOption func(*HID)

// WithHIDLogger logs every report at trace level.
func WithHIDLogger(l zerolog.Logger) HIDOption {
	return func(h *HID) {
		h.log = l
	}
}

// NewHID wraps an already opened report stream.
func NewHID(dev io.ReadWriter, closeFn func() error, opts ...HIDOption) *HID {
	h := &HID{
		dev:        dev,
		closeFn:    closeFn,
		packetSize: PacketSize,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OpenHID opens the first Ledger device exposing the APDU interface.
func OpenHID(opts ...HIDOption) (*HID, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("%w: USB-HID is not supported on this platform", ErrNoDevice)
	}

	for _, info := range hid.Enumerate(LedgerVendorID, 0) {
		if info.UsagePage != ledgerUsagePage && info.Interface != 0 {
			continue
		}

		dev, err := info.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", info.Path, err)
		}
		closeFn := func() error {
			dev.Close()
			return nil
		}
		return NewHID(dev, closeFn, opts...), nil
	}

	return nil, fmt.Errorf("%w: no Ledger on USB (vendor %04x)", ErrNoDevice, LedgerVendorID)
}

// Exchange sends one APDU and returns the raw reply, status word included.
func (h *HID) Exchange(ctx context.Context, command []byte) ([]byte, error) {
	return h.guard.run(ctx, func() ([]byte, error) {
		return h.exchange(command)
	})
}

func (h *HID) exchange(command []byte) ([]byte, error) {
	packets, err := WrapCommand(LedgerChannel, command, h.packetSize)
	if err != nil {
		return nil, err
	}

	for _, p := range packets {
		h.log.Trace().Hex("report", p).Msg("hid >>")
		if _, err := h.dev.Write(p); err != nil {
			return nil, fmt.Errorf("hid write: %w", err)
		}
	}

	r := NewReassembler(LedgerChannel)
	buf := make([]byte, h.packetSize)
	for {
		if _, err := io.ReadFull(h.dev, buf); err != nil {
			return nil, fmt.Errorf("hid read: %w", err)
		}
		h.log.Trace().Hex("report", buf).Msg("hid <<")

		done, err := r.Feed(buf)
		if err != nil {
			return nil, err
		}
		if done {
			return r.Reply(), nil
		}
	}
}

// Close releases the device handle.
func (h *HID) Close() error {
	if !h.guard.close() || h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}
