package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jason5545/TrackPal/internal/cmd"
)

func main() {
	fmt.Printf(cmd.Header, cmd.Version)
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("trackpal exited with an error")
	}
}
