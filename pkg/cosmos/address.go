package cosmos

import (
	"crypto/sha256"
	"fmt"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// ADDRESS REPLY:
//
//	| compressed public key (33 bytes) | bech32 address (remaining bytes) |
//
// The address is not length-prefixed; it is whatever follows the key.

// PubKeyLen is the size of a compressed secp256k1 public key.
const PubKeyLen = 33

// AddressResult holds the key and address derived by the device.
type AddressResult struct {
	PublicKey [PubKeyLen]byte
	Address   string
}

// DecodeAddress parses the data of a get-address reply. The address text is
// returned as the device sent it.
func DecodeAddress(data []byte) (AddressResult, error) {
	if len(data) < PubKeyLen {
		return AddressResult{}, decodeErrorf(ErrInvalidPublicKey, "%d bytes, want at least %d", len(data), PubKeyLen)
	}
	if data[0] != 0x02 && data[0] != 0x03 {
		return AddressResult{}, decodeErrorf(ErrInvalidPublicKey, "parity byte %02X", data[0])
	}

	rest := data[PubKeyLen:]
	if !utf8.Valid(rest) {
		return AddressResult{}, decodeErrorf(ErrInvalidAddress, "address is not valid UTF-8")
	}

	var res AddressResult
	copy(res.PublicKey[:], data[:PubKeyLen])
	res.Address = string(rest)
	return res, nil
}

// PubKey parses the compressed key as a curve point.
func (a AddressResult) PubKey() (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(a.PublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// AccountAddress encodes ripemd160(sha256(pubkey)) as bech32 under hrp.
func AccountAddress(hrp string, pubKey []byte) (string, error) {
	sum := sha256.Sum256(pubKey)
	h := ripemd160.New()
	h.Write(sum[:])

	conv, err := bech32.ConvertBits(h.Sum(nil), 8, 5, true)
	if err != nil {
		return "", err
	}
	addr, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHRP, err)
	}
	return addr, nil
}

// Verify checks that Address is the bech32 account address of PublicKey,
// using the human readable part found in Address.
func (a AddressResult) Verify() error {
	if _, err := a.PubKey(); err != nil {
		return err
	}

	hrp, _, err := bech32.Decode(a.Address)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, a.Address, err)
	}

	want, err := AccountAddress(hrp, a.PublicKey[:])
	if err != nil {
		return err
	}
	if want != a.Address {
		return fmt.Errorf("%w: device returned %s, key derives %s", ErrInvalidAddress, a.Address, want)
	}
	return nil
}
