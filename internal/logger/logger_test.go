package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToOutAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "outreach.log")

	log, closeFn, err := New(Options{Level: "debug", Format: "json", File: file, Out: &buf})
	require.NoError(t, err)

	log.WithComponent("ingest").WithRecipient("a@amazon.com", 2).Info().Msg("hello")
	require.NoError(t, closeFn())

	assert.Contains(t, buf.String(), `"component":"ingest"`)
	assert.Contains(t, buf.String(), `"recipient":"a@amazon.com"`)
	assert.Contains(t, buf.String(), `"batch":2`)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Level: "warn", Format: "json", Out: &buf})
	require.NoError(t, err)

	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Level: "chatty", Format: "console", Out: &buf})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
