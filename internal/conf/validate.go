package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const maxBatchSize = 1000

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct and reports every
// problem at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatabaseSettings(&settings.Database)...)
	ve.Errors = append(ve.Errors, validateIngestSettings(&settings.Ingest)...)

	if settings.Cache.TTL < 0 {
		ve.Errors = append(ve.Errors, "cache ttl must not be negative")
	}

	if _, _, err := net.SplitHostPort(settings.API.Listen); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("api listen address %q is invalid: %v", settings.API.Listen, err))
	}

	if settings.Telemetry.Sentry.Enabled && settings.Telemetry.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry telemetry is enabled but no DSN is set")
	}

	ve.Errors = append(ve.Errors, validateLevel("logging default_level", settings.Logging.DefaultLevel)...)
	for module, level := range settings.Logging.ModuleLevels {
		ve.Errors = append(ve.Errors, validateLevel("logging level of module "+module, level)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(db *DatabaseSettings) []string {
	var errs []string

	switch db.Type {
	case DatabaseSQLite:
		if strings.TrimSpace(db.SQLite.Path) == "" {
			errs = append(errs, "sqlite path must not be empty")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" {
			errs = append(errs, "mysql host must not be empty")
		}
		if db.MySQL.Database == "" {
			errs = append(errs, "mysql database must not be empty")
		}
		if db.MySQL.Username == "" {
			errs = append(errs, "mysql username must not be empty")
		}
		if port, err := strconv.Atoi(db.MySQL.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("mysql port %q must be a number between 1 and 65535", db.MySQL.Port))
		}
		if db.MySQL.MaxOpenConns < 1 {
			errs = append(errs, "mysql maxopenconns must be at least 1")
		}
		if db.MySQL.MaxIdleConns < 0 || db.MySQL.MaxIdleConns > db.MySQL.MaxOpenConns {
			errs = append(errs, "mysql maxidleconns must be between 0 and maxopenconns")
		}
	default:
		errs = append(errs, fmt.Sprintf("database type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, db.Type))
	}

	if db.SlowQueryThreshold < 0 {
		errs = append(errs, "database slowquerythreshold must not be negative")
	}

	return errs
}

func validateIngestSettings(in *IngestSettings) []string {
	var errs []string

	if in.MaxConcurrentLoads < 1 {
		errs = append(errs, "ingest maxconcurrentloads must be at least 1")
	}
	if in.BatchSize < 1 || in.BatchSize > maxBatchSize {
		errs = append(errs, fmt.Sprintf("ingest batchsize must be between 1 and %d", maxBatchSize))
	}
	if in.LoadTimeout <= 0 {
		errs = append(errs, "ingest loadtimeout must be positive")
	}
	if in.Retry.MaxAttempts < 1 {
		errs = append(errs, "ingest retry maxattempts must be at least 1")
	}
	if in.Retry.InitialInterval <= 0 {
		errs = append(errs, "ingest retry initialinterval must be positive")
	}
	if in.Retry.MaxInterval < in.Retry.InitialInterval {
		errs = append(errs, "ingest retry maxinterval must not be shorter than initialinterval")
	}

	return errs
}

func validateLevel(what, level string) []string {
	switch strings.ToLower(level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return []string{fmt.Sprintf("%s %q is not a log level", what, level)}
}
