package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"scheme-workers/internal/common/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewFromConfig_RespectsLevel(t *testing.T) {
	l := NewFromConfig(config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewFromConfig_BadOutputFallsBackToNop(t *testing.T) {
	l := NewFromConfig(config.LoggingConfig{Level: "info", Output: "/nonexistent-dir/x/y.log"})
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "search-schemes"})

	log.Warn("corpus fetch failed", map[string]interface{}{
		"error":    errors.New("connection refused"),
		"attempts": 2,
	})
	log.WithError(errors.New("boom")).Debug("scored", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "search-schemes", ctx["taskType"])
		assert.Equal(t, "connection refused", ctx["error"])
		assert.EqualValues(t, 2, ctx["attempts"])
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
}
