package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gregLibert/ledger-cosmos/pkg/cosmos"
)

// VersionCommand creates the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show the version of the Cosmos app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "require",
				Usage: "Fail unless the app is at least this version (major.minor.patch)",
			},
		},
		Action: withSession(runVersion),
	}
}

func runVersion(ctx context.Context, cmd *cli.Command, s *session) error {
	if raw := cmd.String("require"); raw != "" {
		min, err := parseVersion(raw)
		if err != nil {
			return err
		}
		if err := s.app.CheckVersion(ctx, min); err != nil {
			return err
		}
	}

	v, err := s.app.GetVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, v.Describe())
	return nil
}

func parseVersion(raw string) (cosmos.AppVersion, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(raw), "v"), ".")
	if len(parts) != 3 {
		return cosmos.AppVersion{}, fmt.Errorf("invalid version %q: expected major.minor.patch", raw)
	}

	var fields [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return cosmos.AppVersion{}, fmt.Errorf("invalid version %q: %w", raw, err)
		}
		fields[i] = uint8(n)
	}
	return cosmos.AppVersion{Major: fields[0], Minor: fields[1], Patch: fields[2]}, nil
}
