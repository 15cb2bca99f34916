package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger writing to stderr. Verbose enables
// debug-level output.
func NewLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
