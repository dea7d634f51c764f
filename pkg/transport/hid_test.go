package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
)

// fakeReports emulates the report stream of a device. It reassembles each
// command and queues the framed reply returned by respond.
type fakeReports struct {
	respond  func(cmd []byte) []byte
	pending  *Reassembler
	out      bytes.Buffer
	commands [][]byte
	block    chan struct{}
	closed   bool
}

func (f *fakeReports) Write(p []byte) (int, error) {
	if f.pending == nil {
		f.pending = NewReassembler(LedgerChannel)
	}
	done, err := f.pending.Feed(p)
	if err != nil {
		return 0, err
	}
	if done {
		cmd := f.pending.Reply()
		f.pending = nil
		f.commands = append(f.commands, cmd)

		packets, err := WrapCommand(LedgerChannel, f.respond(cmd), PacketSize)
		if err != nil {
			return 0, err
		}
		for _, pkt := range packets {
			f.out.Write(pkt)
		}
	}
	return len(p), nil
}

func (f *fakeReports) Read(p []byte) (int, error) {
	if f.block != nil {
		<-f.block
		return 0, io.EOF
	}
	return f.out.Read(p)
}

func TestHID_Exchange(t *testing.T) {
	dev := &fakeReports{respond: func(cmd []byte) []byte {
		// Echo the payload back followed by 9000, like a loopback app.
		return append(append([]byte{}, cmd[apdu.HeaderLen:]...), 0x90, 0x00)
	}}
	h := NewHID(dev, func() error { dev.closed = true; return nil })

	payload := bytes.Repeat([]byte{0x42}, 200)
	cmd := append(apdu.Hex("55 02 01 00 C8"), payload...)

	reply, err := h.Exchange(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Exchange() unexpected error: %v", err)
	}
	if !bytes.Equal(dev.commands[0], cmd) {
		t.Errorf("device received %X", dev.commands[0])
	}
	if want := append(payload, 0x90, 0x00); !bytes.Equal(reply, want) {
		t.Errorf("reply = %X, want %X", reply, want)
	}

	if err := h.Close(); err != nil || !dev.closed {
		t.Errorf("Close() = %v, closed = %v", err, dev.closed)
	}
	if _, err := h.Exchange(context.Background(), cmd); !errors.Is(err, ErrClosed) {
		t.Errorf("Exchange() after Close error = %v, want ErrClosed", err)
	}
}

func TestHID_AsApduChannel(t *testing.T) {
	dev := &fakeReports{respond: func([]byte) []byte { return apdu.Hex("00 02 22 0C 00 90 00") }}
	client := apdu.NewClient(NewHID(dev, nil))

	trace, err := client.Execute(context.Background(), apdu.NewCommandAPDU(0x55, 0x00, 0, 0, nil), "version")
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !bytes.Equal(trace.Data(), apdu.Hex("00 02 22 0C 00")) {
		t.Errorf("Data() = %X", trace.Data())
	}
}

func TestHID_TimeoutBreaksChannel(t *testing.T) {
	dev := &fakeReports{
		respond: func([]byte) []byte { return apdu.Hex("90 00") },
		block:   make(chan struct{}),
	}
	defer close(dev.block)
	h := NewHID(dev, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.Exchange(ctx, apdu.Hex("55 00 00 00 00")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Exchange() error = %v, want DeadlineExceeded", err)
	}
	if _, err := h.Exchange(context.Background(), apdu.Hex("55 00 00 00 00")); !errors.Is(err, ErrBroken) {
		t.Errorf("Exchange() after timeout error = %v, want ErrBroken", err)
	}
}

func TestHID_InvalidReplyHeader(t *testing.T) {
	dev := &fakeReports{respond: func([]byte) []byte { return apdu.Hex("90 00") }}
	h := NewHID(dev, nil)

	// Corrupt the stream by queueing a report from another channel first.
	bogus := make([]byte, PacketSize)
	bogus[0], bogus[1], bogus[2] = 0x02, 0x02, TagAPDU
	dev.out.Write(bogus)

	if _, err := h.Exchange(context.Background(), apdu.Hex("55 00 00 00 00")); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("Exchange() error = %v, want ErrInvalidHeader", err)
	}
}
