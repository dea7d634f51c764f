package apdu

import (
	"fmt"
	"strings"
)

// TRANSACTION:
// One Command APDU sent by the host, followed by one Response APDU, together
// with the Outcome the status table gave it.
//
// TRACE:
// A chronological sequence of Transactions captured for one logical command.
// A get-address is a single transaction; a signature is INIT, any number of
// ADD and one LAST. The final meaningful data is carried by the last reply.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
	Outcome  Outcome
}

// IsSuccess checks if the transaction ended with the Success outcome.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Outcome.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data returns the data field of the last reply, or nil.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe renders the trace one transaction per line, for verbose output.
func (t Trace) Describe() string {
	var lines []string
	for i, tx := range t {
		if tx.Command != nil {
			lines = append(lines, fmt.Sprintf("#%d >> %s", i, tx.Command))
		}
		if tx.Response == nil {
			lines = append(lines, fmt.Sprintf("#%d << (no reply)", i))
			continue
		}
		line := fmt.Sprintf("#%d << %s | %s", i, tx.Response, tx.Outcome)
		if len(tx.Response.Data) > 0 {
			line += fmt.Sprintf("\n    + Data:  %X\n    + ASCII: %q", tx.Response.Data, SafeASCII(tx.Response.Data))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
