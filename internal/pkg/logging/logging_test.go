package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"separation/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("separation", "info", &buf)

	logger.Debug("hidden")
	logger.Info("line transitioned", "order_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "separation", entry["service"])
	assert.Equal(t, "line transitioned", entry["msg"])
	assert.Equal(t, "abc", entry["order_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}
