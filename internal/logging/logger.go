// Package logging configures zerolog for the snirf command-line tools.
//
// The reconciler library itself never logs on its own; it takes a
// zerolog.Logger through snirf.WithLogger. This package builds that logger
// from flags and environment.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Nop discards all output.
var Nop = zerolog.Nop()

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level string

	// Format is the output format: console, json or auto.
	Format string

	// NoColor disables color output in console mode.
	NoColor bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "auto",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// ConfigFromEnv returns DefaultConfig overridden by LOG_LEVEL, LOG_FORMAT
// and NO_COLOR.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	return cfg
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(cfg.Level)

	logger := zerolog.New(writer(w, cfg)).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Add caller information in debug mode
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// writer wraps w in a console writer when the format asks for it, or when
// the format is auto and w is a terminal.
func writer(w io.Writer, cfg Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}

	switch format {
	case "console", "pretty":
		return zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	default:
		return w
	}
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
