package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskIdentifier(t *testing.T) {
	tests := map[string]string{
		"john.doe@example.com": "j******e@example.com",
		"ab@example.com":       "**@example.com",
		"+5491155551234":       "+54*******1234",
		"12345":                "*****",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskIdentifier(in), in)
	}
}

func TestFrom_FallsBackToSingleton(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("fallback")
	From(nil).Info("nil ctx") //nolint:staticcheck

	scoped := zap.New(core).With(RequestID("r-1"))
	From(ToContext(context.Background(), scoped)).Info("scoped")

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "r-1", entries[2].ContextMap()["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nope"))
}
