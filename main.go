package main

import (
	"context"
	"os"

	"github.com/gregLibert/ledger-cosmos/cmd"
	"github.com/gregLibert/ledger-cosmos/internal/logging"
)

func main() {
	if err := cmd.RootCommand().Run(context.Background(), os.Args); err != nil {
		logger := logging.New(os.Stderr, logging.FromEnv("error"))
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
