// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// Opts configures New.
type Opts struct {
	Level  string    // debug, info, warn, error; default info
	Writer io.Writer // default os.Stderr
	JSON   bool      // plain JSON lines instead of console output
}

// New returns a slog.Logger backed by zerolog.
func New(opts Opts) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	zl := zerolog.New(w).With().Timestamp().Logger()

	return slog.New(slogzerolog.Option{
		Level:  ParseLevel(opts.Level),
		Logger: &zl,
	}.NewZerologHandler())
}

// Nop returns a logger that discards everything. Used by tests and library callers.
func Nop() *slog.Logger {
	return New(Opts{Writer: io.Discard, JSON: true, Level: "error"})
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
