// config.go: settings struct for the framix engine and the functions to load
// and access it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// RotationType defines the log rotation policy for file loggers.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// LogConfig contains settings for a rotating file log.
type LogConfig struct {
	Enabled  bool         // true to write a JSON log file
	Path     string       // log file path
	Rotation RotationType // rotation policy
	MaxSize  int64        // max size in bytes for size-based rotation
}

// EngineSettings contains the pipeline runtime defaults.
type EngineSettings struct {
	QueueCapacity int           // bounded connection queue length
	StopTimeout   time.Duration // graph drain bound before forced cancellation
}

// PoolSettings contains frame buffer pool tuning.
type PoolSettings struct {
	MaxFreePerShape int // free buffers kept per shape, 0 for unbounded
}

// MonitorSettings controls the resource monitor that trims pools under
// memory pressure.
type MonitorSettings struct {
	Enabled         bool
	Interval        time.Duration // sampling interval
	MemoryThreshold float64       // used-memory percentage that triggers a trim
}

// MetricsSettings controls the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
	Listen  string // host:port
}

// SentrySettings controls optional error telemetry. Disabled by default;
// nothing is sent unless explicitly enabled.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// OutputSettings locates run artifacts (recorded frames, charts).
type OutputSettings struct {
	Path string
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug   bool
	Log     LogConfig
	Engine  EngineSettings
	Pool    PoolSettings
	Monitor MonitorSettings
	Metrics MetricsSettings
	Sentry  SentrySettings
	Output  OutputSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and makes it the current one.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("framix")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// First run: generate the default config file so the user
			// has something to edit, then continue on it.
			configPath, err := EnsureDefaultConfig()
			if err != nil {
				return fmt.Errorf("error creating default config file: %w", err)
			}
			viper.SetConfigFile(configPath)
			return viper.ReadInConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// EnsureDefaultConfig writes the embedded default configuration into the
// user config directory unless a config file already exists there, and
// returns the file's path.
func EnsureDefaultConfig() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configPaths[len(configPaths)-1], "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := WriteDefaultConfig(configPath); err != nil {
		return "", err
	}
	return configPath, nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "framix"))
	}

	return paths, nil
}

// WriteDefaultConfig writes the embedded default config file to the given
// path, creating parent directories as needed.
func WriteDefaultConfig(configPath string) error {
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return nil
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetTestSettings replaces the current settings instance. Intended for tests
// that need deterministic configuration without touching the filesystem.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	once.Do(func() {})
	settingsInstance = settings
}
