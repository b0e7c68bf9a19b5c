package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const timeFormat = "2006-01-02 15:04:05"

// New returns a logger writing to w at the named level
// (debug, info, warn or error).
func New(w io.Writer, level string) (*slog.Logger, error) {
	const errCtx = "creating logger"

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
	})

	return slog.New(handler), nil
}

// ValidLevel reports whether level is accepted by New.
func ValidLevel(level string) bool {
	_, err := log.ParseLevel(strings.TrimSpace(level))
	return err == nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
