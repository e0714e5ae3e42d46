package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	buf.Reset()
	return entry
}

func TestNewRequestContext(t *testing.T) {
	rc := NewRequestContext(nil, "com.apple.Safari")

	_, err := uuid.Parse(rc.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "com.apple.Safari", rc.AppID)
	assert.NotNil(t, rc.Logger)
	assert.GreaterOrEqual(t, rc.DurationMs(), int64(0))
}

func TestRequestContext_Logging(t *testing.T) {
	var buf bytes.Buffer
	rc := NewRequestContextWithID(newJSONLogger(&buf), "run-1", "com.apple.Notes")

	rc.Info("classified", slog.String(LogFieldAction, "create"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "run-1", entry[LogFieldRunID])
	assert.Equal(t, "com.apple.Notes", entry[LogFieldAppID])
	assert.Equal(t, "create", entry[LogFieldAction])

	rc.Error("failed", errors.New("boom"))
	entry = decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ERROR", entry["level"])

	rc.WithFields(slog.String(LogFieldPhase, "executing")).Debug("step")
	entry = decodeLine(t, &buf)
	assert.Equal(t, "executing", entry[LogFieldPhase])
	assert.Equal(t, "run-1", entry[LogFieldRunID])
}

func TestRequestContext_OmitsEmptyAppID(t *testing.T) {
	var buf bytes.Buffer
	NewRequestContextWithID(newJSONLogger(&buf), "run-2", "").Warn("no app")

	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, LogFieldAppID)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)

	rc := NewRequestContextWithID(nil, "run-3", "")
	ctx = WithRequestContext(ctx, rc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)
}

func TestLoggerFrom(t *testing.T) {
	assert.Same(t, slog.Default(), LoggerFrom(context.Background()))

	var buf bytes.Buffer
	rc := NewRequestContextWithID(newJSONLogger(&buf), "run-4", "com.apple.mail")
	ctx := WithRequestContext(context.Background(), rc)

	LoggerFrom(ctx).Debug("routing intent", "provider", "mail")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "run-4", entry[LogFieldRunID])
	assert.Equal(t, "com.apple.mail", entry[LogFieldAppID])
	assert.Equal(t, "mail", entry["provider"])
}
