package cosmos

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/moov-io/bertlv"
)

// SIGNATURE REPLY:
// The device returns an ECDSA signature as a DER SEQUENCE of two INTEGERs:
//
//	| 30 | len | 02 | len(r) | r | 02 | len(s) | s |
//
// DER allows a single encoding per value: short-form lengths (a secp256k1
// signature never exceeds 72 bytes), no leading zero unless the next byte has
// its high bit set, no negative values, nothing after the SEQUENCE.
//
// The device may return a high-S signature. Cosmos verifiers reject those, so
// s is always folded into the lower half of the curve order.

const (
	minDERSignatureLen = 8
	maxDERSignatureLen = 72

	tagSequence = "30"
	tagInteger  = "02"
)

// SignatureResult is a canonical (low-S) signature, both values big-endian.
type SignatureResult struct {
	R [32]byte
	S [32]byte
}

// ParseDERSignature decodes a DER signature and canonicalizes it. It has no
// side effects.
func ParseDERSignature(der []byte) (SignatureResult, error) {
	if len(der) < minDERSignatureLen || len(der) > maxDERSignatureLen {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "length %d outside [%d, %d]", len(der), minDERSignatureLen, maxDERSignatureLen)
	}

	if int(der[1]) != len(der)-2 {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "SEQUENCE length %02X does not match %d bytes", der[1], len(der)-2)
	}

	packets, err := bertlv.Decode(der)
	if err != nil {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "malformed TLV: %v", err)
	}
	if len(packets) != 1 || !strings.EqualFold(packets[0].Tag, tagSequence) {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "expected a single SEQUENCE")
	}

	ints := packets[0].TLVs
	if len(ints) != 2 || !strings.EqualFold(ints[0].Tag, tagInteger) || !strings.EqualFold(ints[1].Tag, tagInteger) {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "expected two INTEGERs")
	}
	rBytes, sBytes := ints[0].Value, ints[1].Value

	// With short-form lengths the encoding is exactly six header bytes plus
	// both integers. Anything else is long-form lengths or trailing data.
	if len(der) != 6+len(rBytes)+len(sBytes) {
		return SignatureResult{}, decodeErrorf(ErrSignatureParse, "non canonical lengths")
	}

	var r, s btcec.ModNScalar
	if err := parseDERInteger(rBytes, &r, "r"); err != nil {
		return SignatureResult{}, err
	}
	if err := parseDERInteger(sBytes, &s, "s"); err != nil {
		return SignatureResult{}, err
	}

	return Canonicalize(SignatureResult{R: r.Bytes(), S: s.Bytes()}), nil
}

// parseDERInteger enforces the DER integer rules and 0 < v < n.
func parseDERInteger(b []byte, v *btcec.ModNScalar, name string) error {
	if len(b) == 0 {
		return decodeErrorf(ErrSignatureParse, "%s is empty", name)
	}
	if b[0]&0x80 != 0 {
		return decodeErrorf(ErrSignatureParse, "%s is negative", name)
	}
	if len(b) > 1 && b[0] == 0x00 && b[1]&0x80 == 0 {
		return decodeErrorf(ErrSignatureParse, "%s has a superfluous leading zero", name)
	}

	if b[0] == 0x00 {
		b = b[1:]
	}
	if len(b) > 32 {
		return decodeErrorf(ErrSignatureParse, "%s is wider than 256 bits", name)
	}

	if overflow := v.SetByteSlice(b); overflow {
		return decodeErrorf(ErrSignatureParse, "%s is not below the curve order", name)
	}
	if v.IsZero() {
		return decodeErrorf(ErrSignatureParse, "%s is zero", name)
	}
	return nil
}

// Canonicalize replaces s with n - s when s is above n/2. Applying it twice
// gives the same result as applying it once.
func Canonicalize(sig SignatureResult) SignatureResult {
	var s btcec.ModNScalar
	s.SetBytes(&sig.S)
	if s.IsOverHalfOrder() {
		s.Negate()
		sig.S = s.Bytes()
	}
	return sig
}

// IsLowS reports whether s is in the lower half of the curve order.
func (sig SignatureResult) IsLowS() bool {
	var s btcec.ModNScalar
	s.SetBytes(&sig.S)
	return !s.IsOverHalfOrder()
}

// Bytes returns the 64-byte r || s form carried in Cosmos transactions.
func (sig SignatureResult) Bytes() []byte {
	out := make([]byte, 64)
	copy(out[:32], sig.R[:])
	copy(out[32:], sig.S[:])
	return out
}

func (sig SignatureResult) toECDSA() *ecdsa.Signature {
	var r, s btcec.ModNScalar
	r.SetBytes(&sig.R)
	s.SetBytes(&sig.S)
	return ecdsa.NewSignature(&r, &s)
}

// DER returns the canonical DER encoding of the signature.
func (sig SignatureResult) DER() []byte {
	return sig.toECDSA().Serialize()
}

// Verify checks the signature of sha256(message) against pub, which is what
// the device signs.
func (sig SignatureResult) Verify(message []byte, pub *btcec.PublicKey) bool {
	if pub == nil {
		return false
	}
	hash := sha256.Sum256(message)
	return sig.toECDSA().Verify(hash[:], pub)
}
