package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "AuthService")

	log.Info("login ok", "username", "kim")
	log.Debug("denied", "category", "product")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "login ok", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "AuthService", fields["service"])
	assert.Equal(t, "kim", fields["username"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		log, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}
