// Package conf loads zclstore settings with viper.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Database types
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// EnvPrefix is the prefix of environment overrides, e.g. ZCLSTORE_DATABASE_TYPE.
const EnvPrefix = "ZCLSTORE"

// SQLiteSettings configures the embedded store.
type SQLiteSettings struct {
	Path string // path to the database file
}

// MySQLSettings configures a MySQL server store.
type MySQLSettings struct {
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	MaxOpenConns    int           // connection pool size
	MaxIdleConns    int           // idle connections kept open
	ConnMaxLifetime time.Duration // recycle connections after this long
}

// DatabaseSettings selects and configures the store backend.
type DatabaseSettings struct {
	Type               string // sqlite or mysql
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
	SlowQueryThreshold time.Duration // queries slower than this are logged at WARN, 0 disables
}

// RetrySettings bounds retries of transient storage failures during a load.
type RetrySettings struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// IngestSettings tunes the ingestion coordinator.
type IngestSettings struct {
	MaxConcurrentLoads int           // loads executing at once, identical loads count once
	BatchSize          int           // rows per INSERT statement
	LoadTimeout        time.Duration // upper bound for one load including retries
	Retry              RetrySettings
}

type CacheSettings struct {
	TTL time.Duration // package lookup cache lifetime, 0 disables caching
}

type APISettings struct {
	Listen string // host:port of the read-only query API
}

type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

type TelemetrySettings struct {
	Sentry SentrySettings
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug     bool
	Database  DatabaseSettings
	Ingest    IngestSettings
	Cache     CacheSettings
	API       APISettings
	Logging   logger.LoggingConfig
	Telemetry TelemetrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// A missing config file is not an error; defaults and environment apply.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper registers defaults, search paths and environment overrides, then
// reads the config file. An explicit file set with viper.SetConfigFile wins
// over the search paths.
func initViper() error {
	viper.SetConfigType("yaml")

	// SetConfigName would clear a file chosen with --config
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName("config")

		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		for _, path := range configPaths {
			viper.AddConfigPath(path)
		}
	}

	setDefaultConfig()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Context("config_file", viper.ConfigFileUsed()).
			Build()
	}

	return nil
}

// GetSettings returns the settings of the last successful Load, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the directories searched for config.yaml:
// the working directory, $HOME/.config/zclstore and /etc/zclstore.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "zclstore"),
		"/etc/zclstore",
	}, nil
}

// DefaultConfig returns the commented default config.yaml.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded default config: %w", err)
	}
	return data, nil
}

// WriteDefaultConfig writes the default config.yaml to path, refusing to
// overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file %s already exists", path).
			Category(errors.CategoryConflict).
			Build()
	}

	data, err := DefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write-config").
			Build()
	}

	return nil
}
