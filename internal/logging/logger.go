// Package logging builds the service's structured zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format and destination.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // "json" or "console"
	Output string // "stdout", "stderr" or a file path
}

// New creates the root logger tagged with the service name and version.
// An unopenable output file falls back to stdout.
func New(service, version string, cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var out io.Writer
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "stdout", "":
		out = os.Stdout
	default:
		f, err := openLogFile(cfg.Output)
		if err != nil {
			out = os.Stdout
		} else {
			out = f
		}
	}

	return NewWithWriter(service, version, cfg, out)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(service, version string, cfg Config, out io.Writer) zerolog.Logger {
	if cfg.Format == "console" || cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
