// Package logging builds the structured slog logger used across nsequant,
// with optional rotating file output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/seenimoa/nsequant/internal/config"
)

// New creates a logger from the logging section of the config. The returned
// closer flushes and closes the rotating file, if one was opened.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	return NewConsole(cfg, os.Stdout, os.Stderr)
}

// NewConsole is New with explicit console streams. Console logs go to
// stderr unless output is "stdout".
func NewConsole(cfg config.LoggingConfig, stdout, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = stderr
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
	case "stdout":
		out = stdout
	case "file", "both":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("logging: output %q needs logging.file", cfg.Output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = rotator
		out = rotator
		if strings.EqualFold(cfg.Output, "both") {
			out = io.MultiWriter(stderr, rotator)
		}
	default:
		return nil, nil, fmt.Errorf("logging: unknown output %q", cfg.Output)
	}

	return slog.New(handler(out, cfg)), closer, nil
}

// NewWriter creates a logger that writes to w.
func NewWriter(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	return slog.New(handler(w, cfg))
}

// Nop returns a logger that discards everything, for tests.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func handler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
