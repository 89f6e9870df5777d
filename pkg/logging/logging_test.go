package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		" info ":  LevelInfo,
		"Warn":    LevelWarn,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"":        LevelInfo,
		"trace":   LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestFromStrings(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromStrings("DEBUG", "json", &buf)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, FormatJSON, cfg.Format)

	New(cfg).Debug("fetch issued", "type", "authors")
	assert.Contains(t, buf.String(), `"type":"authors"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestFor(t *testing.T) {
	var buf bytes.Buffer
	log := For(New(Config{Level: LevelInfo, Output: &buf}), "store")

	log.Info("reset")
	assert.Contains(t, buf.String(), "component=store")

	assert.NotNil(t, For(nil, "store"))
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.False(t, log.Enabled(context.Background(), LevelError))
	log.ErrorContext(context.Background(), "discarded")
}
