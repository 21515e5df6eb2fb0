package events_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citebridge/citebridge/internal/events"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "text", &buf)

	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warn("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "[WARN]")
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	logger.WithField("collection", "ML Papers").
		WithField("items", 3).
		Info("syncing")

	out := buf.String()
	assert.Contains(t, out, "collection=ML Papers")
	assert.Contains(t, out, "items=3")
}

func TestLoggerFieldsDoNotLeakBetweenChildren(t *testing.T) {
	var buf bytes.Buffer
	base := events.NewTestLogger(events.DebugLevel, "text", &buf)

	a := base.WithField("side", "zotero")
	_ = base.WithField("side", "notebooklm")

	buf.Reset()
	a.Info("check")
	assert.Contains(t, buf.String(), "side=zotero")
	assert.NotContains(t, buf.String(), "notebooklm")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithField("component", "state_store").Info("initialized")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "initialized", entry["msg"])
	assert.Equal(t, "state_store", entry["component"])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		events.Discard().WithError(assert.AnError).Error("dropped")
	})
}
