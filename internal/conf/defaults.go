// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("log.enabled", false)
	viper.SetDefault("log.path", "framix.log")
	viper.SetDefault("log.rotation", RotationDaily)
	viper.SetDefault("log.maxsize", 1048576)

	viper.SetDefault("engine.queuecapacity", 2)
	viper.SetDefault("engine.stoptimeout", 10*time.Second)

	viper.SetDefault("pool.maxfreepershape", 8)

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.interval", 30*time.Second)
	viper.SetDefault("monitor.memorythreshold", 85.0)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "localhost:9090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")

	viper.SetDefault("output.path", "output/")
}
