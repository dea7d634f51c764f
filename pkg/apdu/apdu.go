package apdu

import (
	"bytes"
	"errors"
	"fmt"
)

// APDU framing used by the hardware application.
//
// COMMAND APDU (C-APDU):
// A fixed 5-byte header followed by the payload. Unlike ISO 7816-3 there is no
// Le field and no extended length mode: the length byte is always present,
// even when the payload is empty.
//
//	| CLA | INS | P1 | P2 | Lc | Payload (Lc bytes) |
//
//   - CLA (Class): fixed per application.
//   - INS (Instruction): the operation to execute.
//   - P1, P2 (Parameters): operation modifiers (chunk position, display flag).
//   - Lc: payload length on one byte (0 to 255).
//
// RESPONSE APDU (R-APDU):
// An optional body followed by the mandatory 2-byte trailer.
//
//	| Data (variable) | SW1 | SW2 |
//
// TRANSACTION:
// One Command APDU sent by the host, followed by one Response APDU.

// MaxPayloadLen is the largest payload encodable with the one-byte length prefix.
const MaxPayloadLen = 255

// HeaderLen is the size of CLA, INS, P1, P2 and Lc.
const HeaderLen = 5

var (
	// ErrPayloadTooLarge is returned when a payload does not fit the one-byte length prefix.
	ErrPayloadTooLarge = errors.New("apdu: payload too large")

	// ErrMalformedReply is returned when a reply is too short to carry a status word.
	ErrMalformedReply = errors.New("apdu: malformed reply")
)

// CommandAPDU represents a command sent to the device.
type CommandAPDU struct {
	Class       byte
	Instruction byte
	P1, P2      byte
	Data        []byte
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla, ins, p1, p2 byte, data []byte) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
	}
}

// Bytes encodes the CommandAPDU into its wire representation.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, nc, MaxPayloadLen)
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderLen+nc))
	buf.WriteByte(c.Class)
	buf.WriteByte(c.Instruction)
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)
	buf.WriteByte(byte(nc))
	buf.Write(c.Data)

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("CLA: %02X | INS: %02X | P1: %02X, P2: %02X | Lc: %d",
		c.Class, c.Instruction, c.P1, c.P2, len(c.Data))
}

// ResponseAPDU represents the reply from the device.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits a raw reply into its data field and status word.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedReply, len(raw))
	}

	indexSW1 := len(raw) - 2
	data := make([]byte, indexSW1)
	copy(data, raw[:indexSW1])

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
