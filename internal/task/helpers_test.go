package task

import (
	"io"
	"log/slog"
)

// setupTestLogger creates a logger for testing that discards output
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
