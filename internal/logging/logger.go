// Package logging builds the slog loggers used by bond.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Off is the level name that disables logging.
const Off = "off"

// New creates a logger writing text records to stderr.
// Output goes to stderr to stay out of test and CLI stdout.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter creates a logger writing text records to w.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a configured level name. The empty string and "off"
// report enabled=false.
func ParseLevel(s string) (level slog.Level, enabled bool, err error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == Off {
		return 0, false, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, false, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, true, nil
}

// FromLevel returns a stderr logger for the named level, or a no-op logger
// when the level is disabled.
func FromLevel(s string) (*slog.Logger, error) {
	level, enabled, err := ParseLevel(s)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return NewNop(), nil
	}
	return New(level), nil
}
