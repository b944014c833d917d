package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONLToFileAndConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "bugtree.log")
	var console bytes.Buffer

	logger, cleanup, err := setup(&console, logFile, slog.LevelInfo)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("run finished", "findings", 3)
	cleanup()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "run finished", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.EqualValues(t, 3, rec["findings"])

	assert.Equal(t, string(data), console.String())
}

func TestSetup_Appends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bugtree.log")
	for i := 0; i < 2; i++ {
		logger, cleanup, err := setup(&bytes.Buffer{}, logFile, slog.LevelInfo)
		require.NoError(t, err)
		logger.Info("line")
		cleanup()
	}

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}
