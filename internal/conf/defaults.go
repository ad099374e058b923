package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/zclstore/internal/logger"
)

// setDefaultConfig registers a default for every key. Environment overrides
// only reach Unmarshal for keys viper knows about, so new settings need an
// entry here.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("database.type", DatabaseSQLite)
	viper.SetDefault("database.sqlite.path", "data/zclstore.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.mysql.username", "zclstore")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "zclstore")
	viper.SetDefault("database.mysql.maxopenconns", 100)
	viper.SetDefault("database.mysql.maxidleconns", 10)
	viper.SetDefault("database.mysql.connmaxlifetime", time.Hour)
	viper.SetDefault("database.slowquerythreshold", 200*time.Millisecond)

	viper.SetDefault("ingest.maxconcurrentloads", 4)
	viper.SetDefault("ingest.batchsize", 100)
	viper.SetDefault("ingest.loadtimeout", 5*time.Minute)
	viper.SetDefault("ingest.retry.maxattempts", 5)
	viper.SetDefault("ingest.retry.initialinterval", 50*time.Millisecond)
	viper.SetDefault("ingest.retry.maxinterval", 2*time.Second)

	viper.SetDefault("cache.ttl", 10*time.Minute)

	viper.SetDefault("api.listen", "127.0.0.1:8080")

	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.flush_interval", logger.DefaultFlushInterval)
	viper.SetDefault("logging.module_levels", map[string]string{})

	viper.SetDefault("telemetry.sentry.enabled", false)
	viper.SetDefault("telemetry.sentry.dsn", "")
	viper.SetDefault("telemetry.sentry.environment", "production")
}
