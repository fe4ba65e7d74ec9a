package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, obs := observer.New(level)
	return NewZapLogger(zap.New(core).Sugar()), obs
}

func TestNewDevLogger(t *testing.T) {
	logger := NewDevLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &ZapLogger{}, logger)
}

func TestNewProdLogger(t *testing.T) {
	logger := NewProdLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &ZapLogger{}, logger)
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Infow("discarded", "k", "v")
	})
}

func TestZapLoggerLevels(t *testing.T) {
	logger, obs := newObserved(zap.DebugLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	require.Equal(t, 4, obs.Len())
	all := obs.All()
	assert.Equal(t, zap.DebugLevel, all[0].Level)
	assert.Equal(t, zap.InfoLevel, all[1].Level)
	assert.Equal(t, zap.WarnLevel, all[2].Level)
	assert.Equal(t, zap.ErrorLevel, all[3].Level)
}

func TestZapLoggerStructured(t *testing.T) {
	logger, obs := newObserved(zap.InfoLevel)

	logger.Infow("signed in", "email", "ada@example.com")
	require.Equal(t, 1, obs.Len())
	entry := obs.All()[0]
	assert.Equal(t, "signed in", entry.Message)
	assert.Contains(t, entry.Context, zap.String("email", "ada@example.com"))
}

func TestZapLoggerFormatted(t *testing.T) {
	logger, obs := newObserved(zap.InfoLevel)

	logger.Infof("attempt %d of %d", 2, 3)
	require.Equal(t, 1, obs.Len())
	assert.Equal(t, "attempt 2 of 3", obs.All()[0].Message)
}

func TestZapLoggerPanic(t *testing.T) {
	logger, obs := newObserved(zapcore.PanicLevel)

	assert.Panics(t, func() {
		logger.Panic("panic message")
	})
	require.Equal(t, 1, obs.Len())
	assert.Equal(t, "panic message", obs.All()[0].Message)
}

// Fatal is not covered since it calls os.Exit; we rely on zap's own tests.

func TestZapLoggerNamed(t *testing.T) {
	logger, obs := newObserved(zap.InfoLevel)

	named := logger.Named("session")
	require.IsType(t, &ZapLogger{}, named)

	named.Info("test message")
	require.Equal(t, 1, obs.Len())
	assert.Equal(t, "session", obs.All()[0].LoggerName)
}

func TestZapLoggerWith(t *testing.T) {
	logger, obs := newObserved(zap.InfoLevel)

	withFields := logger.With("userID", "u1")
	require.IsType(t, &ZapLogger{}, withFields)

	withFields.Info("test message")
	require.Equal(t, 1, obs.Len())
	entry := obs.All()[0]
	assert.Equal(t, "test message", entry.Message)
	assert.Contains(t, entry.Context, zap.String("userID", "u1"))
}
