package apdu

import (
	"context"
	"fmt"
)

// CHUNKED EXCHANGE:
// Payloads larger than one frame are sent as a strict sequence of commands
// sharing CLA, INS and P2, with P1 marking the position in the sequence:
//
//	INIT (P1=00) | header payload (derivation path)
//	ADD  (P1=01) | message[0:250]      (zero or more)
//	LAST (P1=02) | message[n-k:n]      (exactly one, possibly empty)
//
// The device hashes the chunks as they arrive, so the order is part of the
// protocol. The sequence is modelled as typed steps: Init returns a ChunkStep,
// whose Add returns the next ChunkStep, and whose Last closes the sequence.
// Every step can be used once.
//
// INIT accepts Success or Retryable(ContinueExchange). ADD and LAST require
// Success. The first failure aborts the sequence; nothing is retried.

// ChunkSize is the largest message slice carried by one ADD or LAST command.
const ChunkSize = 250

// P1 values of a chunked exchange.
const (
	PayloadInit byte = 0x00
	PayloadAdd  byte = 0x01
	PayloadLast byte = 0x02
)

// ChunkHeader holds the fields shared by every command of a sequence.
type ChunkHeader struct {
	Class       byte
	Instruction byte
	P2          byte
}

func (h ChunkHeader) command(p1 byte, data []byte) *CommandAPDU {
	return NewCommandAPDU(h.Class, h.Instruction, p1, h.P2, data)
}

// Split cuts message into ordered chunks of at most size bytes. An empty
// message yields one empty chunk. A non-positive size falls back to ChunkSize.
func Split(message []byte, size int) [][]byte {
	if size <= 0 {
		size = ChunkSize
	}
	if len(message) == 0 {
		return [][]byte{{}}
	}

	chunks := make([][]byte, 0, (len(message)+size-1)/size)
	for start := 0; start < len(message); start += size {
		end := min(start+size, len(message))
		chunk := make([]byte, end-start)
		copy(chunk, message[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// ChunkCount is the number of commands needed to send message after an INIT.
func ChunkCount(n int) int {
	if n == 0 {
		return 2
	}
	return 1 + (n+ChunkSize-1)/ChunkSize
}

// ChunkStep is the state of an open chunk sequence.
type ChunkStep struct {
	client *Client
	header ChunkHeader
	trace  Trace
	used   bool
}

// Trace returns the transactions exchanged so far.
func (s *ChunkStep) Trace() Trace {
	return s.trace
}

// Init opens a chunk sequence by sending the header payload.
func (c *Client) Init(ctx context.Context, header ChunkHeader, payload []byte) (*ChunkStep, error) {
	tx, err := c.Send(ctx, header.command(PayloadInit, payload))
	if err != nil {
		return nil, err
	}

	trace := Trace{tx}
	if !tx.Outcome.IsSuccess() && !tx.Outcome.IsContinue() {
		return nil, &DeviceError{Outcome: tx.Outcome, Step: "init"}
	}

	return &ChunkStep{client: c, header: header, trace: trace}, nil
}

// Add sends an intermediate chunk and returns the next step.
func (s *ChunkStep) Add(ctx context.Context, chunk []byte) (*ChunkStep, error) {
	trace, err := s.send(ctx, PayloadAdd, chunk, "add")
	if err != nil {
		return nil, err
	}
	return &ChunkStep{client: s.client, header: s.header, trace: trace}, nil
}

// Last sends the final chunk and closes the sequence. The last transaction of
// the returned trace carries the final data.
func (s *ChunkStep) Last(ctx context.Context, chunk []byte) (Trace, error) {
	return s.send(ctx, PayloadLast, chunk, "last")
}

func (s *ChunkStep) send(ctx context.Context, p1 byte, chunk []byte, step string) (Trace, error) {
	if s == nil || s.client == nil {
		return nil, &ProtocolError{Err: fmt.Errorf("%w: %s on a closed sequence", ErrChunkSequence, step)}
	}
	if s.used {
		return s.trace, &ProtocolError{Err: fmt.Errorf("%w: %s on a consumed step", ErrChunkSequence, step)}
	}
	s.used = true

	tx, err := s.client.Send(ctx, s.header.command(p1, chunk))
	if err != nil {
		return s.trace, err
	}

	trace := make(Trace, len(s.trace), len(s.trace)+1)
	copy(trace, s.trace)
	trace = append(trace, tx)

	if !tx.Outcome.IsSuccess() {
		return trace, &DeviceError{Outcome: tx.Outcome, Step: step}
	}
	return trace, nil
}

// SendChunked drives a whole sequence: INIT with init, then message split in
// ChunkSize slices, the last one sent as LAST.
func (c *Client) SendChunked(ctx context.Context, header ChunkHeader, init, message []byte) (Trace, error) {
	step, err := c.Init(ctx, header, init)
	if err != nil {
		return nil, err
	}

	chunks := Split(message, ChunkSize)
	for _, chunk := range chunks[:len(chunks)-1] {
		next, err := step.Add(ctx, chunk)
		if err != nil {
			return step.trace, err
		}
		step = next
	}

	return step.Last(ctx, chunks[len(chunks)-1])
}
