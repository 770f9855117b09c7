package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlammi/framix/internal/conf"
)

func fileLoggingSettings(path string) *conf.Settings {
	return &conf.Settings{
		Log: conf.LogConfig{
			Enabled:  true,
			Path:     path,
			Rotation: conf.RotationSize,
			MaxSize:  10 * 1024 * 1024,
		},
	}
}

func TestEnableFileOutputWritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "framix.log")
	conf.SetTestSettings(fileLoggingSettings(logPath))

	Init()
	closeLog, err := EnableFileOutput(logPath, slog.LevelDebug)
	require.NoError(t, err)

	slog.Info("graph started", "graph", "zoneplate")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "graph started")
	assert.Contains(t, string(data), `"graph":"zoneplate"`)
}

func TestNewFileLoggerWritesServiceAttribute(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "engine.log")
	conf.SetTestSettings(fileLoggingSettings(logPath))

	logger, closeLog, err := NewFileLogger(logPath, "engine", slog.LevelDebug)
	require.NoError(t, err)

	logger.Debug("worker finished", "instance", "sink")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"engine"`)
	assert.Contains(t, string(data), "worker finished")
}
