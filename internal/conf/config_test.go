package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Engine: EngineSettings{
			QueueCapacity: 2,
			StopTimeout:   10 * time.Second,
		},
		Pool: PoolSettings{MaxFreePerShape: 8},
		Monitor: MonitorSettings{
			Enabled:         true,
			Interval:        30 * time.Second,
			MemoryThreshold: 85.0,
		},
		Metrics: MetricsSettings{
			Enabled: true,
			Listen:  "localhost:9090",
		},
	}
}

func TestValidateSettingsValid(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsCollectsAllViolations(t *testing.T) {
	s := validSettings()
	s.Engine.QueueCapacity = 0
	s.Engine.StopTimeout = 0
	s.Metrics.Listen = "not a listen address"
	s.Monitor.MemoryThreshold = 200

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	// queuecapacity+stoptimeout are one engine violation report,
	// metrics and monitor each another
	assert.GreaterOrEqual(t, len(ve.Errors), 3)
	assert.Contains(t, err.Error(), "queuecapacity")
}

func TestValidateLogSettings(t *testing.T) {
	tests := []struct {
		name    string
		log     LogConfig
		wantErr string
	}{
		{"disabled ignores bad values", LogConfig{Enabled: false}, ""},
		{"missing path", LogConfig{Enabled: true, Rotation: RotationDaily}, "log.path"},
		{"bad rotation", LogConfig{Enabled: true, Path: "x.log", Rotation: "hourly"}, "log.rotation"},
		{"size rotation needs maxsize", LogConfig{Enabled: true, Path: "x.log", Rotation: RotationSize}, "log.maxsize"},
		{"valid daily", LogConfig{Enabled: true, Path: "x.log", Rotation: RotationDaily}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLogSettings(&tt.log)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr),
					"error %q should mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSentryRequiresDSN(t *testing.T) {
	s := validSettings()
	s.Sentry.Enabled = true
	s.Sentry.DSN = ""

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentry.dsn")
}

func TestSetTestSettings(t *testing.T) {
	s := validSettings()
	SetTestSettings(s)
	assert.Same(t, s, GetSettings())
	assert.Same(t, s, Setting())
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "framix", "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "queuecapacity:")
	assert.Contains(t, string(data), "stoptimeout:")
}

func TestEnsureDefaultConfigIsIdempotent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := EnsureDefaultConfig()
	require.NoError(t, err)
	assert.FileExists(t, configPath)

	// An existing config file must not be overwritten.
	require.NoError(t, os.WriteFile(configPath, []byte("debug: true\n"), 0o644))
	again, err := EnsureDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, configPath, again)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug: true\n", string(data))
}
