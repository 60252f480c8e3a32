// File: internal/observability/logger_test.go
package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/veraqa/shoptest/internal/config"
)

// memSink is an in-memory WriteSyncer for capturing console output.
type memSink struct {
	strings.Builder
}

func (s *memSink) Sync() error { return nil }

func TestInitializeWritesThroughConsoleCore(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memSink{}
	Initialize(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "shoptest"}, zapcore.Lock(sink))

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("scenario starting")
	require.NoError(t, logger.Sync())

	out := sink.String()
	assert.Contains(t, out, "scenario starting")
	assert.Contains(t, out, "shoptest.")
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &memSink{}
	second := &memSink{}
	Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "one"}, zapcore.Lock(first))
	Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "two"}, zapcore.Lock(second))

	GetLogger().Info("only the first sink sees this")
	_ = GetLogger().Sync()

	assert.Contains(t, first.String(), "only the first sink sees this")
	assert.Empty(t, second.String())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memSink{}
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "shoptest"}, zapcore.Lock(sink))

	GetLogger().Debug("suppressed")
	GetLogger().Info("kept")
	_ = GetLogger().Sync()

	out := sink.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "kept")
}

func TestGetLoggerBeforeInitializeReturnsFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotNil(t, GetLogger())
}

func TestSyncWithoutLoggerIsSafe(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	Sync()
}
