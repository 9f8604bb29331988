package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("production mode", func(t *testing.T) {
		l, err := New("production", "warn")
		require.NoError(t, err)
		assert.False(t, l.Zap().Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Zap().Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("development mode defaults to info", func(t *testing.T) {
		l, err := New("dev", "")
		require.NoError(t, err)
		assert.True(t, l.Zap().Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Zap().Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New("prod", "loud")
		assert.Error(t, err)
	})
}

func TestEventAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "generator")

	l.Event("item_accepted", "item_id", 7)
	l.Debug("attempt rejected", "reason", "pattern_ceiling")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "item_accepted", entries[0].Message)
	assert.Equal(t, "item_accepted", first["event"])
	assert.Equal(t, "generator", first["component"])
	assert.EqualValues(t, 7, first["item_id"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "pattern_ceiling", entries[1].ContextMap()["reason"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	l.Sync()
}
