// Package logging builds the slog loggers used by tagexpand. Records are
// rendered by a charmbracelet/log handler with timestamps.
package logging
