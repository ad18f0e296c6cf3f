// Package logging builds the zerolog logger used by the command line layer.
//
// Core packages (schema, reconcile, derive, pipeline) never log; they report
// through return values and Diagnostics. Outer layers receive a
// zerolog.Logger built here.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the level, format, and destination of log output.
type Config struct {
	Level   string // explicit level; wins over Verbose and Quiet
	Verbose bool   // shortcut for debug
	Quiet   bool   // shortcut for warn
	Format  string // console | json; empty picks console on a terminal
	Output  io.Writer
}

// New returns a logger configured from cfg.
//
// Level precedence: Level, then Verbose, then Quiet, then the
// HEALTHETL_LOG_LEVEL environment variable, then info.
func New(cfg Config) zerolog.Logger {
	level := ResolveLevel(cfg)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if useConsole(cfg.Format, out) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ResolveLevel applies the level precedence rules to cfg.
func ResolveLevel(cfg Config) zerolog.Level {
	if cfg.Level != "" {
		return parseLevel(cfg.Level)
	}
	if cfg.Verbose && cfg.Quiet {
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return zerolog.WarnLevel
	}
	if cfg.Verbose {
		return zerolog.DebugLevel
	}
	if cfg.Quiet {
		return zerolog.WarnLevel
	}
	if env := os.Getenv("HEALTHETL_LOG_LEVEL"); env != "" {
		return parseLevel(env)
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func parseLevel(s string) zerolog.Level {
	if !ValidLevel(s) {
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", s, "info")
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func useConsole(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case FormatJSON:
		return false
	case FormatConsole:
		return true
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
