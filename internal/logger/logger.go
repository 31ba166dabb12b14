// Package logger builds the zerolog logger shared by the ledger binaries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger at the given level ("debug", "info", ...). Development output is
// pretty-printed to stderr; otherwise JSON lines are written.
func New(service, level string, development bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stderr
	if development {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}
	}
	return build(output, service, level)
}

func build(output io.Writer, service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Init builds a logger with New and installs it as the zerolog global.
func Init(service, level string, development bool) zerolog.Logger {
	l := New(service, level, development)
	log.Logger = l
	return l
}
