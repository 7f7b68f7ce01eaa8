package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roadviz/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json", "")

	l.Info().Str("current", "n1").Msg("Visited node")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "n1", entry["current"])
	assert.Equal(t, "Visited node", entry["message"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console", "")

	l.Warn().Msg("Pulse shader unavailable")

	assert.Contains(t, buf.String(), "Pulse shader unavailable")
	assert.Contains(t, buf.String(), "WRN")
}

func TestInit(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := Init(config.LogConfig{Level: "loud", Output: "stderr"})
		assert.Error(t, err)
	})

	t.Run("rejects unknown output", func(t *testing.T) {
		_, err := Init(config.LogConfig{Level: "info", Output: "syslog"})
		assert.Error(t, err)
	})

	t.Run("writes to file and filters by level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "roadviz.log")
		l, err := Init(config.LogConfig{Level: "warn", Format: "json", Output: "file", File: path})
		require.NoError(t, err)
		t.Cleanup(func() { Close() })

		l.Info().Msg("hidden")
		sl := Component("service")
		sl.Warn().Msg("shown")
		require.NoError(t, Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "hidden")
		assert.Contains(t, string(data), "shown")
		assert.True(t, strings.Contains(string(data), `"component":"service"`))
	})
}
