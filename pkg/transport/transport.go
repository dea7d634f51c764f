// Package transport provides the physical channels the CLI uses to reach a
// device: Ledger USB-HID and PC/SC readers. Both implement apdu.Channel and
// carry raw APDUs; neither interprets them.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
)

// Kinds accepted by Open.
const (
	KindHID  = "hid"
	KindPCSC = "pcsc"
)

var (
	ErrNoDevice = errors.New("transport: no device found")
	ErrBroken   = errors.New("transport: channel unusable after an aborted exchange")
	ErrClosed   = errors.New("transport: channel closed")
)

// Conn is a channel that owns an OS handle.
type Conn interface {
	apdu.Channel
	Close() error
}

// Open connects to the first device of the given kind. For PC/SC, reader
// selects a reader by name; empty means the first one listed.
func Open(kind, reader string, log zerolog.Logger) (Conn, error) {
	switch kind {
	case KindHID, "":
		h, err := OpenHID(WithHIDLogger(log))
		if err != nil {
			return nil, err
		}
		return h, nil
	case KindPCSC:
		p, err := OpenPCSC(reader)
		if err != nil {
			return nil, err
		}
		return p.WithLogger(log), nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want %s or %s)", kind, KindHID, KindPCSC)
	}
}

// guard runs blocking exchanges under a lock and gives up when ctx is done.
// An exchange abandoned that way leaves the device mid-message, so the guard
// refuses every later exchange.
type guard struct {
	mu     sync.Mutex
	broken bool
	closed bool
}

func (g *guard) run(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrClosed
	}
	if g.broken {
		return nil, ErrBroken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		reply []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := fn()
		done <- result{reply, err}
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-ctx.Done():
		g.broken = true
		return nil, ctx.Err()
	}
}

func (g *guard) close() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return false
	}
	g.closed = true
	return true
}
