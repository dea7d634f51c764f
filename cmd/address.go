package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

// AddressCommand creates the address command.
func AddressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Get the public key and bech32 address of a derivation path",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "BIP44 derivation path (e.g. m/44'/118'/0'/0/0)",
			},
			&cli.BoolFlag{
				Name:  "display",
				Usage: "Show the address on the device and wait for confirmation",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Derive the address from the public key and compare",
			},
		},
		Action: withSession(runAddress),
	}
}

func runAddress(ctx context.Context, cmd *cli.Command, s *session) error {
	path, err := s.cfg.HDPath()
	if err != nil {
		return err
	}

	res, err := s.app.GetAddress(ctx, path, cmd.Bool("display"))
	if err != nil {
		return err
	}

	if !cmd.Bool("verify") {
		fmt.Fprintln(s.out, res.Describe(path, nil))
		return nil
	}

	verr := res.Verify()
	ok := verr == nil
	fmt.Fprintln(s.out, res.Describe(path, &ok))
	if verr != nil {
		return errors.Join(errors.New("address verification failed"), verr)
	}
	return nil
}
