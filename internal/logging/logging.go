// Package logging selects a structured-logging handler appropriate to
// the process's stdout: a human-readable text handler for an
// interactive terminal, JSON otherwise, matching the teacher's habit of
// wiring slog once at startup (see cmd/worldsim/main.go).
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// New builds the default logger for the given output stream and level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init builds the default logger for stdout and installs it as the
// package-level default, mirroring the teacher's startup sequence.
func Init(level slog.Level) *slog.Logger {
	logger := New(os.Stdout, level)
	slog.SetDefault(logger)
	return logger
}
