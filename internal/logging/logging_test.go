package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production", slog.LevelInfo).Info("department created", "id", "JCC-DEPT-001")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "department created", line["msg"])
	assert.Equal(t, "JCC-DEPT-001", line["id"])
	assert.Equal(t, "jcc-admin", line["service"])
}

func TestNew_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "development", slog.LevelInfo).Info("hello")

	assert.True(t, strings.Contains(buf.String(), "msg=hello"), buf.String())
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "staging", slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
