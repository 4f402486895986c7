package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/yunginnanet/ftdi-mcp342x/pkg/mcp342x"
)

var log zerolog.Logger

func init() {
	// stdout carries readings, logs go to stderr
	cw := zerolog.ConsoleWriter{Out: os.Stderr}
	log = zerolog.New(cw).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func exitCode(err error) int {
	if errors.Is(err, mcp342x.ErrInvalidArgument) {
		return 2
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp(os.Stdout).RunContext(ctx, os.Args)
	stop()

	if err != nil {
		log.Error().Err(err).Msg("mcp342x failed")
		os.Exit(exitCode(err))
	}
}
