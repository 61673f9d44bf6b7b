package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Text(t *testing.T) {
	t.Setenv("HSCAN_LOG_FORMAT", "")
	t.Setenv("HSCAN_LOG_LEVEL", "warn")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Init("hscan", Options{Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "service=hscan")
	assert.Same(t, logger, slog.Default())
}

func TestInit_JSONVerbose(t *testing.T) {
	t.Setenv("HSCAN_LOG_FORMAT", "json")
	t.Setenv("HSCAN_LOG_LEVEL", "error")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init("hscan", Options{Verbose: true, Quiet: true, Output: &buf}).Debug("dbg")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dbg", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "hscan", rec["service"])
}

func TestInit_Quiet(t *testing.T) {
	t.Setenv("HSCAN_LOG_LEVEL", "debug")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Init("hscan", Options{Quiet: true, Output: &buf})
	logger.Warn("w")
	assert.Empty(t, buf.String())
}
