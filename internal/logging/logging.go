// Package logging builds the zerolog loggers shared by the CLI and daemon.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger with timestamps.
func New(w io.Writer, debug bool) zerolog.Logger {
	return zerolog.New(w).Level(level(debug)).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger for terminal use.
func NewConsole(w io.Writer, debug bool) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level(debug)).With().Timestamp().Logger()
}

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
