package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Str("post_id", "p1").Msg("visible")
	assert.Contains(t, buf.String(), `"service":"peacesync-blog"`)
	assert.Contains(t, buf.String(), `"post_id":"p1"`)
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, "info", parseLevel("verbose").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
}
