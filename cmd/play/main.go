// Command play is the terminal client for the Guess the Country server.
//
// Usage:
//
//	play [-server http://localhost:3000] [-v]
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/internal/cli"
	"github.com/robalobadob/countryguess/internal/client"
)

func main() {
	server := flag.String("server", envOr("COUNTRYGUESS_SERVER", "http://localhost:3000"), "server base URL")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	api, err := client.New(*server)
	if err != nil {
		log.Fatal().Err(err).Msg("client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	err = cli.New(api, line, os.Stdout).Run(ctx)
	line.Close()
	if err != nil {
		log.Error().Err(err).Str("server", *server).Msg("game ended")
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
