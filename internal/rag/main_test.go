package rag

import (
	"io"
	"log/slog"
)

func init() {
	// Keep test output free of pipeline logging.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
