package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "synapse.log")
	logger := newFileLogger(path, false)
	logger.Debug("hidden")
	logger.Info("export finished", zap.Int("pages", 3))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "export finished", entry["message"])
	assert.EqualValues(t, 3, entry["pages"])
	assert.Contains(t, entry, "timestamp")
}

func TestFileLoggerDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synapse.log")
	logger := newFileLogger(path, true)
	logger.Debug("visible")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}
