package cosmos

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DERIVATION PATH:
// A BIP-44 path m / purpose' / coin_type' / account' / change / address_index.
// The firmware hardens the first three components itself, so the values held
// here are plain indices below 2^31.
//
// Wire encoding (20 bytes):
//
//	| purpose | coin_type | account | change | address_index |
//	  u32 LE    u32 LE      u32 LE    u32 LE   u32 LE
//	  |0x80000000 on the first three

const (
	// Hardened is the bit marking a hardened derivation index.
	Hardened uint32 = 0x80000000

	PurposeBIP44  uint32 = 44
	CoinTypeAtom  uint32 = 118
	PathComponents       = 5
	PathLen              = PathComponents * 4
)

// HDPath is an immutable BIP-44 derivation path.
type HDPath struct {
	c [PathComponents]uint32
}

// NewHDPath builds a path from unhardened indices.
func NewHDPath(purpose, coinType, account, change, index uint32) (HDPath, error) {
	p := HDPath{c: [PathComponents]uint32{purpose, coinType, account, change, index}}
	for i, v := range p.c {
		if v >= Hardened {
			return HDPath{}, fmt.Errorf("%w: component %d (%d) is out of range", ErrInvalidPath, i, v)
		}
	}
	return p, nil
}

// DefaultHDPath returns 44'/118'/account'/0/index.
func DefaultHDPath(account, index uint32) (HDPath, error) {
	return NewHDPath(PurposeBIP44, CoinTypeAtom, account, 0, index)
}

// ParseHDPath reads the textual form "m/44'/118'/0'/0/0". The first three
// components must be hardened (marked with ' or h), the last two must not.
func ParseHDPath(s string) (HDPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) > 0 && (parts[0] == "m" || parts[0] == "M") {
		parts = parts[1:]
	}
	if len(parts) != PathComponents {
		return HDPath{}, fmt.Errorf("%w: %q has %d components, want %d", ErrInvalidPath, s, len(parts), PathComponents)
	}

	var values [PathComponents]uint32
	for i, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H")
		if hardened {
			part = part[:len(part)-1]
		}
		if wantHardened := i < 3; hardened != wantHardened {
			return HDPath{}, fmt.Errorf("%w: component %d of %q has the wrong hardening", ErrInvalidPath, i, s)
		}

		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return HDPath{}, fmt.Errorf("%w: component %d of %q: %v", ErrInvalidPath, i, s, err)
		}
		values[i] = uint32(v)
	}

	return NewHDPath(values[0], values[1], values[2], values[3], values[4])
}

// Components returns the five unhardened indices.
func (p HDPath) Components() [PathComponents]uint32 {
	return p.c
}

func (p HDPath) Account() uint32 { return p.c[2] }
func (p HDPath) Index() uint32   { return p.c[4] }

// Bytes returns the 20-byte wire encoding.
func (p HDPath) Bytes() []byte {
	out := make([]byte, PathLen)
	for i, v := range p.c {
		if i < 3 {
			v |= Hardened
		}
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func (p HDPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", p.c[0], p.c[1], p.c[2], p.c[3], p.c[4])
}
