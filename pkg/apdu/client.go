package apdu

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CLIENT & PROTOCOL LOGIC:
// The Client is the single path from a CommandAPDU to a classified reply:
//
//	encode -> Channel.Exchange -> decode -> classify
//
// Each stage fails with its own error type (ProtocolError for the codec,
// TransportError for the channel). Classification never fails: an unknown
// status word becomes Fatal(UnknownStatus) and is logged at warn level.
//
// Send() reports what happened without judging it. Execute() additionally
// requires the Success outcome and turns anything else into a DeviceError.

// Channel abstracts the physical connection to the device. Request and reply
// are raw APDU bytes; the channel adds no framing visible to this package.
type Channel interface {
	Exchange(ctx context.Context, command []byte) ([]byte, error)
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, command []byte) ([]byte, error)

func (f ChannelFunc) Exchange(ctx context.Context, command []byte) ([]byte, error) {
	return f(ctx, command)
}

// Client manages the communication with the device.
type Client struct {
	Channel Channel

	table   StatusTable
	log     zerolog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithStatusTable replaces the default status word classification.
func WithStatusTable(t StatusTable) Option {
	return func(c *Client) {
		c.table = t
	}
}

// WithLogger sets the logger used for APDU traces.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithTimeout bounds every single exchange. Zero means no deadline beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a new Client instance.
func NewClient(ch Channel, opts ...Option) *Client {
	c := &Client{
		Channel: ch,
		table:   DefaultStatusTable(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send transmits one command and classifies the reply.
func (c *Client) Send(ctx context.Context, cmd *CommandAPDU) (Transaction, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return Transaction{Command: cmd}, &ProtocolError{Err: err}
	}

	c.log.Debug().Hex("command", rawCmd).Msg("apdu >>")

	exCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		exCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rawResp, err := c.Channel.Exchange(exCtx, rawCmd)
	if err != nil {
		c.log.Debug().Err(err).Msg("apdu exchange failed")
		return Transaction{Command: cmd}, &TransportError{Err: err}
	}

	c.log.Debug().Hex("reply", rawResp).Msg("apdu <<")

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return Transaction{Command: cmd}, &ProtocolError{Err: err}
	}

	outcome := c.table.Classify(resp.Status)
	if outcome.Reason == UnknownStatus {
		c.log.Warn().
			Str("status", resp.Status.Verbose()).
			Stringer("command", cmd).
			Msg("unknown status word")
	}

	return Transaction{
		Command:  cmd,
		Response: resp,
		Outcome:  outcome,
	}, nil
}

// Execute sends one command and requires the Success outcome. Step names the
// exchange in the DeviceError returned otherwise.
func (c *Client) Execute(ctx context.Context, cmd *CommandAPDU, step string) (Trace, error) {
	tx, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}

	trace := Trace{tx}
	if !tx.Outcome.IsSuccess() {
		return trace, &DeviceError{Outcome: tx.Outcome, Step: step}
	}
	return trace, nil
}
