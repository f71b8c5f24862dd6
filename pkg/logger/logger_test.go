package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewLogHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.Debug("hidden")
	l.With("query_id", "q1").WithGroup("leg").Info("leg found", "index", 2, "weight", 12.5)

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "INFO leg found")
	assert.Contains(t, line, "query_id=q1")
	assert.Contains(t, line, "leg.index=2")
	assert.Contains(t, line, "leg.weight=12.5")
	assert.NotContains(t, line, "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupJSON(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	l := Setup(&buf, "warn", true)
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))

	slog.Warn("tile skipped", "tile", 3)
	assert.Contains(t, buf.String(), `"msg":"tile skipped"`)
	assert.Contains(t, buf.String(), `"tile":3`)
}
