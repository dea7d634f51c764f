package cosmos

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
)

// COMMAND SET:
// The Cosmos app answers three instructions under CLA 55:
//
//	INS 00  GET VERSION   no payload
//	INS 04  GET ADDRESS   P2 = display flag, payload = hrp_len | hrp | path
//	INS 02  SIGN          chunked: INIT = path, ADD/LAST = message
//
// An App owns the command sequencing for one channel: commands are
// serialized, so a signature's chunks never interleave with another command.

const (
	CLA byte = 0x55

	InsGetVersion       byte = 0x00
	InsSignSecp256k1    byte = 0x02
	InsGetAddrSecp256k1 byte = 0x04

	P2Silent  byte = 0x00
	P2Display byte = 0x01

	DefaultHRP = "cosmos"
)

// App drives the Cosmos application over a channel.
type App struct {
	mu     sync.Mutex
	client *apdu.Client
	hrp    string
	log    zerolog.Logger
}

type appConfig struct {
	hrp     string
	log     zerolog.Logger
	timeout time.Duration
	table   *apdu.StatusTable
}

// AppOption configures an App.
type AppOption func(*appConfig)

// WithHRP sets the bech32 prefix requested from the device.
func WithHRP(hrp string) AppOption {
	return func(c *appConfig) {
		c.hrp = hrp
	}
}

// WithLogger sets the logger for the app and its APDU client.
func WithLogger(l zerolog.Logger) AppOption {
	return func(c *appConfig) {
		c.log = l
	}
}

// WithTimeout bounds every exchange with the device.
func WithTimeout(d time.Duration) AppOption {
	return func(c *appConfig) {
		c.timeout = d
	}
}

// WithStatusTable overrides the status word classification.
func WithStatusTable(t apdu.StatusTable) AppOption {
	return func(c *appConfig) {
		c.table = &t
	}
}

// NewApp creates an App over ch. The channel is borrowed: closing it is the
// caller's job.
func NewApp(ch apdu.Channel, opts ...AppOption) *App {
	cfg := appConfig{hrp: DefaultHRP, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []apdu.Option{
		apdu.WithLogger(cfg.log),
		apdu.WithTimeout(cfg.timeout),
	}
	if cfg.table != nil {
		clientOpts = append(clientOpts, apdu.WithStatusTable(*cfg.table))
	}

	return &App{
		client: apdu.NewClient(ch, clientOpts...),
		hrp:    cfg.hrp,
		log:    cfg.log,
	}
}

// HRP returns the bech32 prefix used for get-address.
func (a *App) HRP() string {
	return a.hrp
}

// GetVersion reads the app version.
func (a *App) GetVersion(ctx context.Context) (AppVersion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.getVersion(ctx)
}

func (a *App) getVersion(ctx context.Context) (AppVersion, error) {
	cmd := apdu.NewCommandAPDU(CLA, InsGetVersion, 0x00, 0x00, nil)
	trace, err := a.client.Execute(ctx, cmd, "version")
	if err != nil {
		return AppVersion{}, err
	}

	v, err := DecodeVersion(trace.Data())
	if err != nil {
		return AppVersion{}, err
	}

	a.log.Debug().Stringer("version", v).Bool("locked", v.DeviceLocked).Msg("app version")
	return v, nil
}

// CheckVersion fails with a VersionRequiredError if the app is older than min.
func (a *App) CheckVersion(ctx context.Context, min AppVersion) error {
	v, err := a.GetVersion(ctx)
	if err != nil {
		return err
	}
	if !v.AtLeast(min) {
		return &VersionRequiredError{Found: v, Required: min}
	}
	return nil
}

// GetAddress derives the public key and address at path. With display set the
// device shows the address and waits for the user to confirm it.
func (a *App) GetAddress(ctx context.Context, path HDPath, display bool) (AddressResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.getAddress(ctx, path, display)
}

func (a *App) getAddress(ctx context.Context, path HDPath, display bool) (AddressResult, error) {
	payload, err := addressPayload(a.hrp, path)
	if err != nil {
		return AddressResult{}, &apdu.ProtocolError{Err: err}
	}

	p2 := P2Silent
	if display {
		p2 = P2Display
	}

	cmd := apdu.NewCommandAPDU(CLA, InsGetAddrSecp256k1, 0x00, p2, payload)
	trace, err := a.client.Execute(ctx, cmd, "get address")
	if err != nil {
		return AddressResult{}, err
	}

	res, err := DecodeAddress(trace.Data())
	if err != nil {
		return AddressResult{}, err
	}

	a.log.Debug().Stringer("path", path).Str("address", res.Address).Msg("address derived")
	return res, nil
}

func addressPayload(hrp string, path HDPath) ([]byte, error) {
	if err := validateHRP(hrp); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(len(hrp)))
	buf.WriteString(hrp)
	buf.Write(path.Bytes())
	return buf.Bytes(), nil
}

// validateHRP applies the bech32 rules: 1 to 83 printable ASCII characters.
func validateHRP(hrp string) error {
	if len(hrp) == 0 || len(hrp) > 83 {
		return fmt.Errorf("%w: length %d", ErrInvalidHRP, len(hrp))
	}
	for i := 0; i < len(hrp); i++ {
		if c := hrp[i]; c < 33 || c > 126 {
			return fmt.Errorf("%w: character %q", ErrInvalidHRP, c)
		}
	}
	return nil
}

// Sign asks the device to sign message with the key at path. The message is
// the serialized sign document; the device hashes it with sha256.
func (a *App) Sign(ctx context.Context, path HDPath, message []byte) (SignatureResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.sign(ctx, path, message)
}

func (a *App) sign(ctx context.Context, path HDPath, message []byte) (SignatureResult, error) {
	header := apdu.ChunkHeader{Class: CLA, Instruction: InsSignSecp256k1}

	a.log.Debug().
		Stringer("path", path).
		Int("message_len", len(message)).
		Int("commands", apdu.ChunkCount(len(message))).
		Msg("signing")

	trace, err := a.client.SendChunked(ctx, header, path.Bytes(), message)
	if err != nil {
		return SignatureResult{}, err
	}

	return ParseDERSignature(trace.Data())
}

// SignAndVerify signs message, then fetches the public key at path without
// display and checks the signature against it before returning both.
func (a *App) SignAndVerify(ctx context.Context, path HDPath, message []byte) (SignatureResult, AddressResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sig, err := a.sign(ctx, path, message)
	if err != nil {
		return SignatureResult{}, AddressResult{}, err
	}

	addr, err := a.getAddress(ctx, path, false)
	if err != nil {
		return SignatureResult{}, AddressResult{}, err
	}

	pub, err := addr.PubKey()
	if err != nil {
		return SignatureResult{}, AddressResult{}, &DecodeError{Err: err}
	}
	if !sig.Verify(message, pub) {
		return SignatureResult{}, AddressResult{}, &DecodeError{Err: fmt.Errorf("%w: signature does not verify against %X", ErrSignatureParse, addr.PublicKey)}
	}

	return sig, addr, nil
}
