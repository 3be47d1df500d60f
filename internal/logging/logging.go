package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger, installs it as slog's default, and
// returns it. Level accepts "debug", "info", "warn", or "error"
// (case-insensitive); anything else means info.
func Setup(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
