package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paveg/bikeshare/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("debug", "json", &buf)

	logger.WithField("column", "cnt").Warnf("absorbed %d values", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "absorbed 3 values", entry["msg"])
	assert.Equal(t, "cnt", entry["column"])
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", "text", &buf)

	logger.Debugf("hidden")
	logger.WithFields(map[string]interface{}{"view": "trend"}).Infof("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "view=trend")
	assert.False(t, logging.IsDebugEnabled(logger))
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("loud", "text", &buf)

	logger.Infof("info message")
	assert.Contains(t, buf.String(), "info message")
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	logger.Errorf("nothing happens")
	assert.False(t, logging.IsDebugEnabled(logger))
}
