package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/pkg/logger"
)

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriter("warn", &buf)

	log.Debug("ignorado", nil)
	log.Info("ignorado", nil)
	log.Warn("aviso", map[string]interface{}{"crate_id": "c1"})
	log.Error("falha", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "c1", entry.Fields["crate_id"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "boom", entry.Error)
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriter("verbose", &buf)

	log.Debug("ignorado", nil)
	log.Info("registrado", nil)

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
