package logger

import (
	"fmt"
	"log"

	"github.com/gookit/color"
)

// Colour-coded helpers for human-attended console runs (e.g.
// --check), mirroring the structured log at Info/Warn/Error level so
// an operator watching a terminal sees the same events a log
// aggregator would.

// Green prints an informational line in green and logs it at info.
func Green(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	color.Green.Println(msg)
	Logger.Info().Msg(msg)
}

// Blue prints a notice line in blue and logs it at info.
func Blue(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	color.Blue.Println(msg)
	Logger.Info().Msg(msg)
}

// Yellow prints a warning line in yellow and logs it at warn.
func Yellow(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	color.Yellow.Println(msg)
	Logger.Warn().Msg(msg)
}

// Red prints an error line in red and logs it at error.
func Red(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	color.Red.Println(msg)
	Logger.Error().Msg(msg)
}

// Fatal prints an error line in red, logs it at error, then exits the
// process non-zero.
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	color.Red.Println(msg)
	Logger.Error().Msg(msg)
	log.Fatal(msg)
}
