package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HID FRAMING:
// Over USB-HID an APDU is streamed in fixed size reports. Every report starts
// with a 5-byte transport header:
//
//	| channel (2, BE) | tag (1) | sequence index (2, BE) | payload ... |
//
// The channel is 0101, the tag is 05 for APDU payloads, and the sequence index
// starts at 0000. The payload of the first report of a message is prefixed
// with the message length on 2 bytes (BE); the following reports carry raw
// continuation bytes. Reports are zero padded to the report size.
//
// Replies use the same framing. The reassembled reply still ends with the
// status word; removing it is the job of the APDU codec.

const (
	LedgerChannel uint16 = 0x0101
	TagAPDU       byte   = 0x05
	PacketSize           = 64

	frameHeaderLen = 5
	lengthLen      = 2
)

var (
	ErrInvalidHeader    = errors.New("transport: invalid frame header")
	ErrUnexpectedPacket = errors.New("transport: unexpected packet sequence")
	ErrFrameTooLarge    = errors.New("transport: message too large for framing")
)

// WrapCommand splits command into zero padded reports of packetSize bytes.
func WrapCommand(channel uint16, command []byte, packetSize int) ([][]byte, error) {
	if packetSize <= frameHeaderLen+lengthLen {
		return nil, fmt.Errorf("packet size %d is too small", packetSize)
	}
	if len(command) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(command))
	}

	msg := make([]byte, lengthLen, lengthLen+len(command))
	binary.BigEndian.PutUint16(msg, uint16(len(command)))
	msg = append(msg, command...)

	space := packetSize - frameHeaderLen
	var packets [][]byte
	for seq := 0; len(msg) > 0; seq++ {
		if seq > 0xFFFF {
			return nil, fmt.Errorf("%w: sequence overflow", ErrFrameTooLarge)
		}

		packet := make([]byte, packetSize)
		binary.BigEndian.PutUint16(packet[0:2], channel)
		packet[2] = TagAPDU
		binary.BigEndian.PutUint16(packet[3:5], uint16(seq))

		n := copy(packet[frameHeaderLen:], msg[:min(space, len(msg))])
		msg = msg[n:]
		packets = append(packets, packet)
	}
	return packets, nil
}

// Reassembler rebuilds a reply from the reports read off the device.
type Reassembler struct {
	channel uint16
	seq     uint16
	want    int
	data    []byte
	started bool
}

// NewReassembler creates a Reassembler expecting reports on channel.
func NewReassembler(channel uint16) *Reassembler {
	return &Reassembler{channel: channel}
}

// Feed consumes one report. It returns true once the whole reply is in.
func (r *Reassembler) Feed(packet []byte) (bool, error) {
	if len(packet) < frameHeaderLen {
		return false, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(packet))
	}
	if binary.BigEndian.Uint16(packet[0:2]) != r.channel || packet[2] != TagAPDU {
		return false, fmt.Errorf("%w: % X", ErrInvalidHeader, packet[:frameHeaderLen])
	}
	if seq := binary.BigEndian.Uint16(packet[3:5]); seq != r.seq {
		return false, fmt.Errorf("%w: got %d, want %d", ErrUnexpectedPacket, seq, r.seq)
	}
	r.seq++

	payload := packet[frameHeaderLen:]
	if !r.started {
		if len(payload) < lengthLen {
			return false, fmt.Errorf("%w: first packet without length", ErrInvalidHeader)
		}
		r.want = int(binary.BigEndian.Uint16(payload[:lengthLen]))
		r.data = make([]byte, 0, r.want)
		r.started = true
		payload = payload[lengthLen:]
	}

	left := r.want - len(r.data)
	r.data = append(r.data, payload[:min(left, len(payload))]...)
	return len(r.data) == r.want, nil
}

// Reply returns the reassembled message.
func (r *Reassembler) Reply() []byte {
	return r.data
}
