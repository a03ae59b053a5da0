package telemetry

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with service context.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a service-tagged structured logger on stdout.
func NewLogger(service string) *Logger {
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &Logger{Logger: logger}
}

// NewConsoleLogger creates a human-readable logger on stderr for CLI use.
func NewConsoleLogger(service string) *Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &Logger{Logger: logger}
}
