package apdu

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes a series of hex strings. Spaces are ignored so that
// "55 00 00 00 00" and "5500000000" are equivalent.
func ParseHex(parts ...string) ([]byte, error) {
	clean := strings.ReplaceAll(strings.Join(parts, ""), " ", "")
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")

	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input '%s': %w", clean, err)
	}
	return data, nil
}

// Hex is ParseHex for literals known to be valid. It panics otherwise.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err.Error())
	}
	return data
}

// SafeASCII replaces every non printable byte with a dot.
func SafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
