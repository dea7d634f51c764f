package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/gregLibert/ledger-cosmos/internal/config"
	"github.com/gregLibert/ledger-cosmos/internal/logging"
	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
	"github.com/gregLibert/ledger-cosmos/pkg/cosmos"
	"github.com/gregLibert/ledger-cosmos/pkg/transport"
)

// dial opens the device channel. Tests replace it with an emulator.
var dial = transport.Open

// RootCommand creates the ledger-cosmos command tree.
func RootCommand() *cli.Command {
	return &cli.Command{
		Name:  "ledger-cosmos",
		Usage: "Talk to the Cosmos app of a hardware signer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("LEDGER_COSMOS_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "transport",
				Usage: "Device transport (hid or pcsc)",
			},
			&cli.StringFlag{
				Name:  "reader",
				Usage: "PC/SC reader name (pcsc transport only)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout of a single exchange with the device",
			},
			&cli.StringFlag{
				Name:  "hrp",
				Usage: "Bech32 prefix of the derived addresses",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (trace, debug, info, warn, error, off)",
			},
		},
		Commands: []*cli.Command{
			VersionCommand(),
			AddressCommand(),
			SignCommand(),
		},
	}
}

// session is the state shared by one command run.
type session struct {
	cfg  config.Config
	log  zerolog.Logger
	conn transport.Conn
	app  *cosmos.App
	out  io.Writer
}

// resolveConfig merges the config file, the environment and the flags.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if cmd.IsSet("transport") {
		cfg.Transport = cmd.String("transport")
	}
	if cmd.IsSet("reader") {
		cfg.Reader = cmd.String("reader")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("hrp") {
		cfg.HRP = cmd.String("hrp")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("path") {
		cfg.Path = cmd.String("path")
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openSession(cmd *cli.Command) (*session, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, logging.FromEnv(cfg.LogLevel))

	conn, err := dial(cfg.Transport, cfg.Reader, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s transport: %w", cfg.Transport, err)
	}

	app := cosmos.NewApp(conn,
		cosmos.WithHRP(cfg.HRP),
		cosmos.WithTimeout(cfg.Timeout),
		cosmos.WithLogger(logger),
	)

	return &session{
		cfg:  cfg,
		log:  logger,
		conn: conn,
		app:  app,
		out:  cmd.Root().Writer,
	}, nil
}

func (s *session) close() {
	if err := s.conn.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close transport")
	}
}

// withSession opens the device around action.
func withSession(action func(ctx context.Context, cmd *cli.Command, s *session) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		return explain(action(ctx, cmd, s))
	}
}

// explain adds the user facing hint matching a device refusal.
func explain(err error) error {
	if err == nil {
		return nil
	}

	var hint string
	switch {
	case errors.Is(err, apdu.SecurityConditionNotSatisfied):
		hint = "unlock the device and open the Cosmos app"
	case errors.Is(err, apdu.AppNotActive):
		hint = "open the Cosmos app on the device"
	case errors.Is(err, apdu.UserRejected):
		hint = "the request was rejected on the device"
	case errors.Is(err, cosmos.ErrVersionRequired):
		hint = "update the Cosmos app"
	default:
		var te *apdu.TransportError
		if errors.As(err, &te) {
			hint = "check the connection; the device may need to be reconnected"
		}
	}

	if hint == "" {
		return err
	}
	return fmt.Errorf("%w (%s)", err, hint)
}
