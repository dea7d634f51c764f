package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gregLibert/ledger-cosmos/pkg/apdu"
)

// SignCommand creates the sign command.
func SignCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign a message (usually StdSignDoc JSON) with the key of a derivation path",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "BIP44 derivation path (e.g. m/44'/118'/0'/0/0)",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to the file holding the message",
			},
			&cli.StringFlag{
				Name:  "hex",
				Usage: "Message as a hex string",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Check the signature against the public key of the path",
			},
		},
		Action: withSession(runSign),
	}
}

func readMessage(cmd *cli.Command) ([]byte, error) {
	filePath := cmd.String("file")
	hexStr := cmd.String("hex")

	switch {
	case filePath == "" && hexStr == "":
		return nil, fmt.Errorf("either --file or --hex must be provided")
	case filePath != "" && hexStr != "":
		return nil, fmt.Errorf("--file and --hex are mutually exclusive")
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		return data, nil
	default:
		data, err := apdu.ParseHex(hexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex message: %w", err)
		}
		return data, nil
	}
}

func runSign(ctx context.Context, cmd *cli.Command, s *session) error {
	msg, err := readMessage(cmd)
	if err != nil {
		return err
	}

	path, err := s.cfg.HDPath()
	if err != nil {
		return err
	}

	if !cmd.Bool("verify") {
		sig, err := s.app.Sign(ctx, path, msg)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, sig.Describe(path))
		return nil
	}

	sig, addr, err := s.app.SignAndVerify(ctx, path, msg)
	if err != nil {
		return err
	}
	ok := addr.Verify() == nil
	fmt.Fprintln(s.out, addr.Describe(path, &ok))
	fmt.Fprintln(s.out, sig.Describe(path))
	return nil
}
