package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cryptochecker/internal/config"
)

func TestNew_Level(t *testing.T) {
	t.Parallel()

	log, err := New(config.Log{Level: "warn"})
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = New(config.Log{Level: "loud"})
	require.Error(t, err)
}

func TestNew_WritesRotatedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.log")
	log, err := New(config.Log{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	log.Info("quote served", zap.String("symbol", "BTC"))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"quote served"`)
	require.Contains(t, string(b), `"symbol":"BTC"`)
	require.Contains(t, string(b), `"time":"`)
}
