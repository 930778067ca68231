package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return h, dir
}

func parquetFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	return matches
}

func TestOnlyErrorsAreBuffered(t *testing.T) {
	h, _ := newTestHandler(t)
	logger := slog.New(h)

	logger.Info("routine message")
	logger.Warn("minor issue")
	assert.Empty(t, h.buffer)

	logger.Error("chunk extraction failed", "source", "doc.txt", "provider", "openai")
	require.Len(t, h.buffer, 1)
	assert.Equal(t, "chunk extraction failed", h.buffer[0].Message)
	assert.Equal(t, "doc.txt", h.buffer[0].Document)
	assert.Equal(t, "openai", h.buffer[0].Provider)
	assert.NotEmpty(t, h.buffer[0].ID)
}

func TestFlushWritesParquetFile(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	logger.Error("boom")
	require.NoError(t, h.Flush())

	files := parquetFiles(t, dir)
	require.Len(t, files, 1)
	info, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Buffer is drained; a second flush adds nothing.
	require.NoError(t, h.Flush())
	assert.Len(t, parquetFiles(t, dir), 1)
}

func TestBatchSizeTriggersFlush(t *testing.T) {
	h, dir := newTestHandler(t)
	h.batchSize = 3
	logger := slog.New(h)

	logger.Error("one")
	logger.Error("two")
	assert.Empty(t, parquetFiles(t, dir))

	logger.Error("three")
	assert.Len(t, parquetFiles(t, dir), 1)
	assert.Empty(t, h.buffer)
}

func TestWithAttrsPreservesForwarding(t *testing.T) {
	h, _ := newTestHandler(t)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "ingest")})

	require.NoError(t, child.Handle(context.Background(), slog.Record{Level: slog.LevelError, Message: "x"}))
}
