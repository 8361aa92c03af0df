package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewRunLogger builds a text slog.Logger that writes to stderr and appends
// the same records to logPath, the run's append-only log file. The returned
// close function flushes the file handle; call it when the run ends.
func NewRunLogger(logPath string, level slog.Level) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler), f.Close, nil
}
