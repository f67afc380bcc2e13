package buildlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewVerboseEnablesDebug(t *testing.T) {
	logger, err := New(true, false)
	require.NoError(t, err)
	defer logger.Sync()
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewQuietSuppressesInfo(t *testing.T) {
	logger, err := New(false, true)
	require.NoError(t, err)
	defer logger.Sync()
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewDefaultIsInfoLevel(t *testing.T) {
	logger, err := New(false, false)
	require.NoError(t, err)
	defer logger.Sync()
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNopDiscardsEverything(t *testing.T) {
	logger := Nop()
	assert.False(t, logger.Core().Enabled(zapcore.FatalLevel))
}
