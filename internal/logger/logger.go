// Package logger builds the zerolog loggers used by the command line tools.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a timestamped JSON logger writing to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger on stderr.
func NewConsole(level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}
