package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Verbosity levels selected with -q, -v and -vv.
const (
	VerbosityQuiet       = -1
	VerbosityNormal      = 0
	VerbosityVerbose     = 1
	VerbosityVeryVerbose = 2
)

var Verbosity = VerbosityNormal

// SetVerbosity sets the global verbosity level and reconfigures the global logger
// to write to stderr.
func SetVerbosity(v int) {
	Verbosity = v
	log.Logger = NewLogger(os.Stderr, v)
}

// NewLogger returns a console logger whose level follows the verbosity:
// quiet only shows errors, the default shows top-level progress, -v shows the
// per-step diagnostics and -vv everything down to individual zip entries.
func NewLogger(w io.Writer, verbosity int) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbosity <= VerbosityQuiet:
		level = zerolog.ErrorLevel
	case verbosity == VerbosityVerbose:
		level = zerolog.DebugLevel
	case verbosity >= VerbosityVeryVerbose:
		level = zerolog.TraceLevel
	}

	out := zerolog.ConsoleWriter{
		Out:          w,
		TimeFormat:   time.RFC3339,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	if f, ok := w.(*os.File); !ok || !IsTerminal(f) {
		out.NoColor = true
	}

	return zerolog.New(out).Level(level)
}

// IsVerbose reports whether -v (or more) was given.
func IsVerbose() bool {
	return Verbosity >= VerbosityVerbose
}

// IsQuiet reports whether -q was given.
func IsQuiet() bool {
	return Verbosity <= VerbosityQuiet
}
