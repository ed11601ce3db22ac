package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestFilteringHandler_DebugLevelAllowsEverything(t *testing.T) {
	h := &filteringHandler{handler: slog.NewJSONHandler(nil, nil), minLevel: slog.LevelDebug}
	assert.True(t, h.Enabled(nil, slog.LevelDebug))
	assert.True(t, h.Enabled(nil, slog.LevelInfo))
}

func TestFilteringHandler_BelowMinLevelDisabled(t *testing.T) {
	h := &filteringHandler{handler: slog.NewJSONHandler(nil, nil), minLevel: slog.LevelWarn}
	assert.False(t, h.Enabled(nil, slog.LevelInfo))
	assert.True(t, h.Enabled(nil, slog.LevelWarn))
}

func TestGet_InitializesDefaultOnFirstUse(t *testing.T) {
	defaultLogger = nil
	l := Get()
	assert.NotNil(t, l)
	assert.Same(t, l, Get(), "Get should return the same process-wide logger once initialized")
}

func TestWith_AttachesAttrsToProcessLogger(t *testing.T) {
	defaultLogger = nil
	l := With("execution_id", "abc123")
	assert.NotNil(t, l)
}
