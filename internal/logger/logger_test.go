package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupWriter(LogConfig{Level: "warn", Format: "json"}, &buf))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	log := WithComponent("etl")
	log.Info().Msg("hidden")
	log.Warn().Int("row", 7).Msg("Skipping invalid invoice row")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "etl", entry["component"])
	assert.Equal(t, 7.0, entry["row"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupInvalidLevel(t *testing.T) {
	err := SetupWriter(LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
