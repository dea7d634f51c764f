package apdu

import (
	"errors"
	"fmt"
)

// ERROR TAXONOMY:
// A command can fail in three distinct places, and callers branch on which:
//
// 1. TransportError: the channel itself failed (disconnect, timeout, I/O).
//    Nothing is known about the device state.
//
// 2. DeviceError: the device answered, but the status word is not a success.
//    The Outcome carries the Reason (locked, rejected, wrong app...).
//
// 3. ProtocolError: a framing rule was broken on either side (oversized
//    payload, truncated reply, chunk sequence misuse).
//
// None of them is ever retried here.

// ErrChunkSequence is returned when a chunk step is used out of order or twice.
var ErrChunkSequence = errors.New("apdu: chunk sequence violation")

// TransportError wraps a failure of the underlying channel.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeviceError reports a non-successful status word. Step names the exchange
// that failed ("version", "init", "add", "last", ...).
type DeviceError struct {
	Outcome Outcome
	Step    string
}

func (e *DeviceError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("device error: %s", e.Outcome)
	}
	return fmt.Sprintf("device error during %s: %s", e.Step, e.Outcome)
}

// Unwrap exposes the Reason so that errors.Is(err, UserRejected) works.
func (e *DeviceError) Unwrap() error {
	return e.Outcome.Reason
}

// ProtocolError reports a framing violation.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
