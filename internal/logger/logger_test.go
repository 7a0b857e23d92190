package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l.Info().Str("component", "test").Msg("hello")
	l.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"message":"hello"`)
	assert.NotContains(t, out, "hidden")
}
