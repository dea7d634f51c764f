package transport

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
)

type fakeCard struct {
	reply []byte
	err   error
	sent  [][]byte
}

func (f *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	f.sent = append(f.sent, cmd)
	return f.reply, f.err
}

func TestPCSC_Exchange(t *testing.T) {
	card := &fakeCard{reply: apdu.Hex("01 02 03 00 90 00")}
	released := false
	p := NewPCSC(card, func() error { released = true; return nil })

	reply, err := p.Exchange(context.Background(), apdu.Hex("55 00 00 00 00"))
	if err != nil {
		t.Fatalf("Exchange() unexpected error: %v", err)
	}
	if !bytes.Equal(reply, card.reply) {
		t.Errorf("reply = %X", reply)
	}
	if !bytes.Equal(card.sent[0], apdu.Hex("55 00 00 00 00")) {
		t.Errorf("sent = %X", card.sent[0])
	}

	if err := p.Close(); err != nil || !released {
		t.Errorf("Close() = %v, released = %v", err, released)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestPCSC_TransmitError(t *testing.T) {
	ioErr := errors.New("card removed")
	p := NewPCSC(&fakeCard{err: ioErr}, nil)

	_, err := apdu.NewClient(p).Send(context.Background(), apdu.NewCommandAPDU(0x55, 0, 0, 0, nil))

	var te *apdu.TransportError
	if !errors.As(err, &te) || !errors.Is(err, ioErr) {
		t.Errorf("Send() error = %v, want TransportError(card removed)", err)
	}
}

func TestPCSC_CancelledContext(t *testing.T) {
	card := &fakeCard{reply: apdu.Hex("90 00")}
	p := NewPCSC(card, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Exchange(ctx, apdu.Hex("55 00 00 00 00")); !errors.Is(err, context.Canceled) {
		t.Errorf("Exchange() error = %v, want Canceled", err)
	}
	if len(card.sent) != 0 {
		t.Errorf("command transmitted with a cancelled context")
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	if _, err := Open("bluetooth", "", zerolog.Nop()); err == nil {
		t.Error("Open(bluetooth) expected an error")
	}
}
