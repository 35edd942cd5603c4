// Package logging sets up the process-wide zerolog logger: a console
// writer in development, structured JSON in production, and a single
// package-level logger every other package logs through via
// github.com/rs/zerolog/log.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. pretty selects the
// human-readable console writer (used for local/dev runs); when false,
// structured JSON is written to stdout (used in production/CI).
func Init(pretty bool, debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
