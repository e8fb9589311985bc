package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/config"
)

func TestStackHookOnlyOnErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := build(&buf, zerolog.DebugLevel)

	logger.Info().Msg("hello")
	assert.NotContains(t, buf.String(), `"stack"`)

	buf.Reset()
	logger.Error().Msg("boom")
	assert.Contains(t, buf.String(), `"stack"`)
	assert.Contains(t, buf.String(), `"version"`)
}

func TestFromConfigRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { FromConfig(config.Log{Level: "info", Format: "xml"}) })
	require.Panics(t, func() { FromConfig(config.Log{Level: "loud", Format: "json"}) })
	require.NotPanics(t, func() { FromConfig(config.Log{Level: "debug", Format: "json"}) })
}
