// Package logger is the process-wide structured logging facade. It
// wraps zerolog for structured, component-tagged logging and gookit
// color for human-attended console runs. Components log through it
// rather than printing with fmt; only main prints directly, for the
// --version and --check output.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger. Every component that
// logs through this package does so with a "component" field instead
// of embedding the component name in the message text.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Str("service", "sysops-agent").
		Logger()
}

// Configure rewires the global logger's output and level. Called once
// at startup after the config file and CLI flags have been resolved.
func Configure(level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var writer io.Writer = out
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(writer).
		With().
		Timestamp().
		Str("service", "sysops-agent").
		Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Component returns a logger pre-tagged with a component field, e.g.
//
//	logger.Component("collector.cpu").Info().Msg("starting")
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithContext returns the global logger enriched with arbitrary
// structured fields, for call sites that need ad hoc context beyond a
// component tag.
func WithContext(fields map[string]interface{}) zerolog.Logger {
	ctx := Logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}

// GetLogger returns the current global logger.
func GetLogger() zerolog.Logger {
	return Logger
}
