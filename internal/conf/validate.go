// conf/validate.go

package conf

import (
	"fmt"
	"net"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateLogSettings(&settings.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateEngineSettings(&settings.Engine); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validatePoolSettings(&settings.Pool); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateMonitorSettings(&settings.Monitor); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateMetricsSettings(&settings.Metrics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateSentrySettings(&settings.Sentry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLogSettings(logConf *LogConfig) error {
	if !logConf.Enabled {
		return nil
	}
	if logConf.Path == "" {
		return fmt.Errorf("log.path must be set when file logging is enabled")
	}
	switch logConf.Rotation {
	case RotationDaily, RotationWeekly, RotationSize:
	default:
		return fmt.Errorf("log.rotation must be one of daily, weekly, size; got %q", logConf.Rotation)
	}
	if logConf.Rotation == RotationSize && logConf.MaxSize <= 0 {
		return fmt.Errorf("log.maxsize must be positive for size-based rotation")
	}
	return nil
}

func validateEngineSettings(engine *EngineSettings) error {
	if engine.QueueCapacity < 1 {
		return fmt.Errorf("engine.queuecapacity must be at least 1, got %d", engine.QueueCapacity)
	}
	if engine.StopTimeout <= 0 {
		return fmt.Errorf("engine.stoptimeout must be positive, got %v", engine.StopTimeout)
	}
	return nil
}

func validatePoolSettings(pool *PoolSettings) error {
	if pool.MaxFreePerShape < 0 {
		return fmt.Errorf("pool.maxfreepershape must not be negative, got %d", pool.MaxFreePerShape)
	}
	return nil
}

func validateMonitorSettings(monitor *MonitorSettings) error {
	if !monitor.Enabled {
		return nil
	}
	if monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %v", monitor.Interval)
	}
	if monitor.MemoryThreshold <= 0 || monitor.MemoryThreshold > 100 {
		return fmt.Errorf("monitor.memorythreshold must be within (0, 100], got %v", monitor.MemoryThreshold)
	}
	return nil
}

func validateMetricsSettings(metrics *MetricsSettings) error {
	if !metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(metrics.Listen); err != nil {
		return fmt.Errorf("metrics.listen is not a valid host:port: %w", err)
	}
	return nil
}

func validateSentrySettings(sentry *SentrySettings) error {
	if sentry.Enabled && sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn must be set when sentry is enabled")
	}
	return nil
}
