package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevelAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "agrilink.log")
	logger, err := NewLogger(Options{Service: "agrilink", Env: "test", Level: "warn", File: file})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.FileExists(t, file)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestWithTraceNormalisesEmptyIDs(t *testing.T) {
	assert.NotNil(t, WithTrace(nil, "", ""))
}
