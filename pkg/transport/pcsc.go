package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebfe/scard"
	"github.com/rs/zerolog"
)

// Transmitter is the part of *scard.Card the channel needs.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// PCSC is a channel to a device reached through a PC/SC reader. APDUs are
// passed to the reader untouched.
type PCSC struct {
	card    Transmitter
	release func() error
	reader  string
	log     zerolog.Logger
	guard   guard
}

// NewPCSC wraps an already connected card.
func NewPCSC(card Transmitter, release func() error) *PCSC {
	return &PCSC{card: card, release: release, log: zerolog.Nop()}
}

// OpenPCSC establishes a PC/SC context and connects to reader, or to the
// first reader listed when reader is empty.
func OpenPCSC(reader string) (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		if relErr := ctx.Release(); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return nil, fmt.Errorf("%w: no smart card reader (%v)", ErrNoDevice, err)
	}

	name := readers[0]
	if reader != "" {
		name = ""
		for _, r := range readers {
			if r == reader {
				name = r
				break
			}
		}
		if name == "" {
			_ = ctx.Release()
			return nil, fmt.Errorf("%w: reader %q not in %q", ErrNoDevice, reader, readers)
		}
	}

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors.
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return nil, fmt.Errorf("connecting to %s: %w", name, err)
	}

	release := func() error {
		return errors.Join(card.Disconnect(scard.LeaveCard), ctx.Release())
	}

	p := NewPCSC(card, release)
	p.reader = name
	return p, nil
}

// WithLogger sets the logger used for APDU traces.
func (p *PCSC) WithLogger(l zerolog.Logger) *PCSC {
	p.log = l
	return p
}

// Reader returns the name of the connected reader.
func (p *PCSC) Reader() string {
	return p.reader
}

// Exchange transmits one APDU through the reader.
func (p *PCSC) Exchange(ctx context.Context, command []byte) ([]byte, error) {
	return p.guard.run(ctx, func() ([]byte, error) {
		p.log.Trace().Hex("command", command).Str("reader", p.reader).Msg("pcsc >>")
		reply, err := p.card.Transmit(command)
		if err != nil {
			return nil, fmt.Errorf("pcsc transmit: %w", err)
		}
		p.log.Trace().Hex("reply", reply).Msg("pcsc <<")
		return reply, nil
	})
}

// Close disconnects the card and releases the PC/SC context.
func (p *PCSC) Close() error {
	if !p.guard.close() || p.release == nil {
		return nil
	}
	return p.release()
}
