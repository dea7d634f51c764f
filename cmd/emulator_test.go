package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/rs/zerolog"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
	"github.com/gregLibert/ledger-cosmos/pkg/cosmos"
	"github.com/gregLibert/ledger-cosmos/pkg/transport"
)

// emulator answers like the Cosmos app 2.34.12 holding a single key.
type emulator struct {
	mu       sync.Mutex
	key      *btcec.PrivateKey
	reject   bool
	pending  []byte
	requests [][]byte
	closed   bool
}

func newEmulator() *emulator {
	key, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))
	return &emulator{key: key}
}

func (e *emulator) Exchange(_ context.Context, cmd []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, append([]byte{}, cmd...))
	if len(cmd) < apdu.HeaderLen || cmd[0] != cosmos.CLA {
		return apdu.Hex("6E 00"), nil
	}
	ins, p1, data := cmd[1], cmd[2], cmd[apdu.HeaderLen:]

	switch ins {
	case cosmos.InsGetVersion:
		return apdu.Hex("00 02 22 0C 00 90 00"), nil

	case cosmos.InsGetAddrSecp256k1:
		hrp := string(data[1 : 1+int(data[0])])
		pub := e.key.PubKey().SerializeCompressed()
		addr, err := cosmos.AccountAddress(hrp, pub)
		if err != nil {
			return apdu.Hex("6A 80"), nil
		}
		return append(append(pub, addr...), 0x90, 0x00), nil

	case cosmos.InsSignSecp256k1:
		switch p1 {
		case apdu.PayloadInit:
			e.pending = nil
		case apdu.PayloadAdd:
			e.pending = append(e.pending, data...)
		case apdu.PayloadLast:
			if e.reject {
				return apdu.Hex("69 85"), nil
			}
			e.pending = append(e.pending, data...)
			hash := sha256.Sum256(e.pending)
			return append(ecdsa.Sign(e.key, hash[:]).Serialize(), 0x90, 0x00), nil
		}
		return apdu.Hex("90 00"), nil
	}
	return apdu.Hex("6D 00"), nil
}

func (e *emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// useEmulator routes dial to e for the duration of the test.
func useEmulator(t *testing.T, e *emulator) {
	t.Helper()
	prev := dial
	dial = func(kind, reader string, _ zerolog.Logger) (transport.Conn, error) {
		return e, nil
	}
	t.Cleanup(func() { dial = prev })
	t.Setenv("LEDGER_COSMOS_LOG_LEVEL", "off")
}

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCommand()
	root.Writer = &out
	err := root.Run(context.Background(), append([]string{"ledger-cosmos"}, args...))
	return out.String(), err
}
