package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leandrodaf/airpiano/sdk/contracts"
)

func observed() (*ZapLogger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core), level: level}, logs
}

func TestFieldsReachZap(t *testing.T) {
	l, logs := observed()
	l.Info("chord on",
		l.Field().String("chord", "D Major"),
		l.Field().Int("notes", 3),
		l.Field().Duration("sustain", 2*time.Second),
		l.Field().Error("error", errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "D Major", ctx["chord"])
	assert.EqualValues(t, 3, ctx["notes"])
	assert.Equal(t, 2*time.Second, ctx["sustain"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestSetLevelFiltersAndIsSharedWithChildren(t *testing.T) {
	l, logs := observed()
	child := l.With(l.Field().String("session", "abc"))

	child.Debug("hidden")
	l.SetLevel(contracts.DebugLevel)
	child.Debug("shown")
	l.SetLevel(contracts.ErrorLevel)
	child.Warn("hidden too")
	child.Error("shown too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["session"])
	assert.Equal(t, "shown too", logs.All()[1].Message)
}

func TestSetDestinationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airpiano.log")
	l := NewZapLogger().(*ZapLogger)
	l.SetDestination(contracts.FileLog, path)
	l.Info("to file", l.Field().String("k", "v"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to file"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel(contracts.DebugLevel))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel(contracts.InfoLevel))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel(contracts.WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel(contracts.ErrorLevel))
}
