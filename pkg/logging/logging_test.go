package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelInfo)

	log.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	log.Debug("hidden")
	assert.Empty(t, buf.String(), "below-level records are dropped")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelDebug)

	log.Debug("event", "frames", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "event", rec["msg"])
	assert.Equal(t, float64(3), rec["frames"])
}

func TestAppendCtx(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("session", "abc"))
	ctx = AppendCtx(ctx, slog.Int("frame", 2))
	log.InfoContext(ctx, "render")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "abc", rec["session"])
	assert.Equal(t, float64(2), rec["frame"])
}

func TestAppendCtx_DoesNotLeakAcrossBranches(t *testing.T) {
	base := AppendCtx(context.Background(), slog.String("a", "1"))
	left := AppendCtx(base, slog.String("b", "2"))
	right := AppendCtx(base, slog.String("c", "3"))

	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	log.InfoContext(left, "l")
	var lrec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &lrec))
	assert.Equal(t, "1", lrec["a"])
	assert.Equal(t, "2", lrec["b"])
	assert.NotContains(t, lrec, "c")

	buf.Reset()
	log.InfoContext(right, "r")
	var rrec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rrec))
	assert.Equal(t, "3", rrec["c"])
	assert.NotContains(t, rrec, "b")
}
