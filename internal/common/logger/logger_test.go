package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNew_RespectsLevel(t *testing.T) {
	l := New("warn", "json")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{FieldTaskType: "submit-application"}).
		WithError(errors.New("boom"))

	log.Info("submitted", map[string]interface{}{FieldApplicationID: "app-1", "cause": errors.New("inner")})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "submitted", entries[0].Message)
		assert.Equal(t, "submit-application", ctx[FieldTaskType])
		assert.Equal(t, "app-1", ctx[FieldApplicationID])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "inner", ctx["cause"])
	}
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.With(map[string]interface{}{"k": "v"}).Debug("ignored", nil)
}
