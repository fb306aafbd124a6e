package logger

import (
	"io"
	"log/slog"
	"os"
)

type LogCode string

const (
	SYSTEM   LogCode = "SYSTEM"
	SESSION  LogCode = "SESSION"
	UPSTREAM LogCode = "UPSTREAM"
	NOTIFY   LogCode = "NOTIFY"
	DOWNLOAD LogCode = "DOWNLOAD"
	ADMIN    LogCode = "ADMIN"
	SEARCH   LogCode = "SEARCH"
)

// Setup installs the process-wide slog handler: JSON in production,
// text with debug output everywhere else.
func Setup(production bool) *slog.Logger {
	return setup(os.Stderr, production)
}

func setup(w io.Writer, production bool) *slog.Logger {
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// For returns a logger that tags every record with code.
func For(code LogCode) *slog.Logger {
	return slog.Default().With("code", string(code))
}
