package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"invalid", zap.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, parseLogLevel(tt.env).Level(), "LOG_LEVEL=%q", tt.env)
	}
}

func TestIsConsoleFormat(t *testing.T) {
	assert.True(t, isConsoleFormat("console"))
	assert.True(t, isConsoleFormat(" Console "))
	assert.False(t, isConsoleFormat(""))
	assert.False(t, isConsoleFormat("json"))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"", "console"} {
		t.Run("format="+format, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", format)
			t.Setenv("LOG_LEVEL", "debug")
			logger, err := NewLogger()
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.True(t, logger.Core().Enabled(zap.DebugLevel))
			logger.Info("test message")
			_ = logger.Sync()
		})
	}
}

func TestFlushTelemetry_NilLogger(t *testing.T) {
	assert.NoError(t, FlushTelemetry(context.Background(), nil))
}
