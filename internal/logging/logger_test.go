package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrNopReturnsNopForNil(t *testing.T) {
	logger := OrNop(nil)
	require.NotNil(t, logger)
	// Must not panic.
	logger.Debug("debug %d", 1)
	logger.Error("error")
}

func TestIsNilDetectsTypedNil(t *testing.T) {
	var typed *fileLogger
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(typed))
	assert.False(t, IsNil(Nop()))
	assert.False(t, IsNil(NewComponentLogger("test")))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestComponentLoggerDoesNotPanicWithoutFile(t *testing.T) {
	logger := NewComponentLogger("UnitTest")
	logger.Info("turn %d processed", 3)
	logger.Warn("fallback engaged: %s", "pattern classifier")
}
