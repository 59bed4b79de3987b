// Package logging constructs the zerolog loggers used across the tool.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to stderr. Quiet mode suppresses
// everything below warning level.
func New(quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards all output. For tests.
func Nop() zerolog.Logger {
	return zerolog.New(io.Discard)
}
