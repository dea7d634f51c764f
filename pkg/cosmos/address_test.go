package cosmos

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

func testKey(seed byte) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return priv
}

func addressReply(t *testing.T, pub []byte, addr string) []byte {
	t.Helper()
	return append(append([]byte{}, pub...), addr...)
}

func TestDecodeAddress(t *testing.T) {
	zeroKey := append([]byte{0x02}, make([]byte, 32)...)

	tests := []struct {
		name     string
		data     []byte
		wantAddr string
		wantErr  error
	}{
		{
			name:     "Key And Address",
			data:     addressReply(t, zeroKey, "cosmos1abc"),
			wantAddr: "cosmos1abc",
		},
		{
			name:     "Odd Parity",
			data:     addressReply(t, append([]byte{0x03}, make([]byte, 32)...), "cosmos1xyz"),
			wantAddr: "cosmos1xyz",
		},
		{
			name:     "Key Only",
			data:     zeroKey,
			wantAddr: "",
		},
		{
			name:    "Uncompressed Prefix",
			data:    addressReply(t, append([]byte{0x04}, make([]byte, 32)...), "cosmos1abc"),
			wantErr: ErrInvalidPublicKey,
		},
		{
			name:    "Short Key",
			data:    make([]byte, 32),
			wantErr: ErrInvalidPublicKey,
		},
		{
			name:    "Invalid UTF-8",
			data:    append(append([]byte{}, zeroKey...), 0xFF, 0xFE),
			wantErr: ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAddress(tt.data)
			if tt.wantErr != nil {
				var decErr *DecodeError
				if !errors.As(err, &decErr) || !errors.Is(err, tt.wantErr) {
					t.Errorf("DecodeAddress() error = %v, want DecodeError(%v)", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAddress() unexpected error: %v", err)
			}
			if got.Address != tt.wantAddr {
				t.Errorf("Address = %q, want %q", got.Address, tt.wantAddr)
			}
			if !bytes.Equal(got.PublicKey[:], tt.data[:PubKeyLen]) {
				t.Errorf("PublicKey = %X", got.PublicKey)
			}
		})
	}
}

func TestAddressResult_Verify(t *testing.T) {
	pub := testKey(0x01).PubKey().SerializeCompressed()

	addr, err := AccountAddress("cosmos", pub)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(addr, "cosmos1") || len(addr) != 45 {
		t.Errorf("AccountAddress() = %q, want a 45 character cosmos1 address", addr)
	}

	res, err := DecodeAddress(addressReply(t, pub, addr))
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Verify(); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}
	if _, err := res.PubKey(); err != nil {
		t.Errorf("PubKey() unexpected error: %v", err)
	}

	t.Run("Other HRP", func(t *testing.T) {
		osmo, _ := AccountAddress("osmo", pub)
		res, _ := DecodeAddress(addressReply(t, pub, osmo))
		if err := res.Verify(); err != nil {
			t.Errorf("Verify() unexpected error: %v", err)
		}
	})

	t.Run("Address Of Another Key", func(t *testing.T) {
		other, _ := AccountAddress("cosmos", testKey(0x02).PubKey().SerializeCompressed())
		res, _ := DecodeAddress(addressReply(t, pub, other))
		if err := res.Verify(); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Verify() error = %v, want ErrInvalidAddress", err)
		}
	})

	t.Run("Not Bech32", func(t *testing.T) {
		res, _ := DecodeAddress(addressReply(t, pub, "cosmos1abc"))
		if err := res.Verify(); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Verify() error = %v, want ErrInvalidAddress", err)
		}
	})

	t.Run("Coordinate Above Field Prime", func(t *testing.T) {
		bad := append([]byte{0x02}, bytes.Repeat([]byte{0xFF}, 32)...)
		res, _ := DecodeAddress(addressReply(t, bad, addr))
		if err := res.Verify(); !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("Verify() error = %v, want ErrInvalidPublicKey", err)
		}
	})
}
