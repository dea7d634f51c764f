package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
	"github.com/gregLibert/ledger-cosmos/pkg/cosmos"
)

func TestRootCommand(t *testing.T) {
	cmd := RootCommand()

	require.NotNil(t, cmd)
	require.Equal(t, "ledger-cosmos", cmd.Name)
	require.Len(t, cmd.Commands, 3)
	require.Len(t, cmd.Flags, 6)

	var hasTimeout bool
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "timeout" {
			hasTimeout = true
		}
	}
	require.True(t, hasTimeout)
}

func TestRoot_FlagsOverrideConfig(t *testing.T) {
	e := newEmulator()
	useEmulator(t, e)
	t.Setenv("LEDGER_COSMOS_HRP", "juno")

	out, err := run(t, "--hrp", "osmo", "address", "--path", "m/44'/118'/0'/0/1")
	require.NoError(t, err)
	require.Contains(t, out, "osmo1")
	require.Contains(t, out, "m/44'/118'/0'/0/1")
}

func TestRoot_InvalidConfig(t *testing.T) {
	useEmulator(t, newEmulator())

	_, err := run(t, "--transport", "ble", "version")
	require.ErrorContains(t, err, "unsupported transport")

	_, err = run(t, "address", "--path", "m/44/118/0/0/0")
	require.ErrorIs(t, err, cosmos.ErrInvalidPath)
}

func TestRoot_ClosesTransport(t *testing.T) {
	e := newEmulator()
	useEmulator(t, e)

	_, err := run(t, "version")
	require.NoError(t, err)
	require.True(t, e.closed)
}

func TestExplain(t *testing.T) {
	rejected := &apdu.DeviceError{
		Outcome: apdu.Outcome{Kind: apdu.Fatal, Reason: apdu.UserRejected, Status: apdu.SW_ERR_CONDITIONS_NOT_SAT},
		Step:    "sign",
	}

	err := explain(rejected)
	require.ErrorIs(t, err, apdu.UserRejected)
	require.ErrorContains(t, err, "rejected on the device")

	err = explain(&apdu.TransportError{Err: errors.New("usb gone")})
	require.ErrorContains(t, err, "reconnected")

	plain := fmt.Errorf("something else")
	require.Equal(t, plain, explain(plain))
	require.NoError(t, explain(nil))
}
