// Package logging builds the structured loggers used across the emulator.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// ParseLevel maps the config file's level names onto slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level %q", name)
}

// New returns a text logger writing records at level and above to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Hex8 and Hex16 format register values the way 6502 listings do.
func Hex8(key string, v uint8) slog.Attr {
	return slog.String(key, fmt.Sprintf("$%02X", v))
}

func Hex16(key string, v uint16) slog.Attr {
	return slog.String(key, fmt.Sprintf("$%04X", v))
}
