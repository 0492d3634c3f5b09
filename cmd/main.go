package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"netexam/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("netexam failed")
		os.Exit(1)
	}
}
