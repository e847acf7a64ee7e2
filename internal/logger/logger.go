package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates a new zerolog logger with console output
func NewLogger() zerolog.Logger {
	return newConsoleLogger(os.Stderr)
}

// NewLoggerWithLevel creates a new logger with a specific log level
func NewLoggerWithLevel(level zerolog.Level) zerolog.Logger {
	return NewLogger().Level(level)
}

// NewVerboseAware picks debug level when verbose output was requested
func NewVerboseAware(verbose bool) zerolog.Logger {
	if verbose {
		return NewLoggerWithLevel(zerolog.DebugLevel)
	}
	return NewLoggerWithLevel(zerolog.InfoLevel)
}

func newConsoleLogger(out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(output).With().Timestamp().Logger()
}
