package apdu

import (
	"bytes"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		want      []byte
		wantPanic bool
	}{
		{
			name:   "Simple Join",
			inputs: []string{"55", "00"},
			want:   []byte{0x55, 0x00},
		},
		{
			name:   "With Spaces",
			inputs: []string{"55 04", " 00 01 "},
			want:   []byte{0x55, 0x04, 0x00, 0x01},
		},
		{
			name:   "Prefixed",
			inputs: []string{"0xCAFE"},
			want:   []byte{0xCA, 0xFE},
		},
		{
			name:      "Invalid Hex",
			inputs:    []string{"ZZ"},
			wantPanic: true,
		},
		{
			name:      "Odd Length",
			inputs:    []string{"123"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("Hex() panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()

			got := Hex(tt.inputs...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Hex() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestParseHex_Error(t *testing.T) {
	if _, err := ParseHex("0G"); err == nil {
		t.Error("ParseHex(0G) expected an error")
	}
}

func TestSafeASCII(t *testing.T) {
	input := []byte{'c', 'o', 's', 'm', 'o', 's', 0x00, 0x1F, 0x7F, '1'}
	if got, want := SafeASCII(input), "cosmos...1"; got != want {
		t.Errorf("SafeASCII() = %q, want %q", got, want)
	}
}
