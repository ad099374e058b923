// Package app wires configuration, logging, storage and ingestion into the
// runtime shared by every CLI command.
package app

import (
	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/ingest"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/observability"
	"github.com/tphakala/zclstore/internal/telemetry"
)

// dbStatsName labels the connection pool metrics.
const dbStatsName = "zclstore"

// App holds the long lived components of one process.
type App struct {
	Settings *conf.Settings
	Log      logger.Logger

	Store    datastore.Manager
	Packages repository.PackageRepository
	Queries  repository.QueryRepository
	Loader   *ingest.Loader
	Metrics  *observability.Metrics

	// LivePackages reads the store on every call. Long running readers
	// such as the API use it, since Packages only sees deletions made by
	// this process.
	LivePackages repository.PackageRepository

	central *logger.CentralLogger
}

// Open builds the runtime from settings. The caller must Close it.
func Open(settings *conf.Settings, version string) (*App, error) {
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_logging").
			Build()
	}
	logger.SetGlobal(central)

	a := &App{
		Settings: settings,
		Log:      central.Module(logger.ModuleCLI),
		central:  central,
	}

	if err := telemetry.InitSentry(&settings.Telemetry, version, central.Module(logger.ModuleTelemetry)); err != nil {
		// Telemetry is optional.
		a.Log.Warn("sentry telemetry not started", logger.Error(err))
	}

	store, err := datastore.NewManager(settings, central.Module(logger.ModuleDatastore))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	metrics, err := observability.NewMetrics()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Metrics = metrics

	if sqlDB, err := store.DB().DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, dbStatsName); err != nil {
			a.Log.Warn("database pool metrics not registered", logger.Error(err))
		}
	}

	db := store.DB()
	a.LivePackages = repository.NewPackageRepository(db)
	packages := a.LivePackages
	if settings.Cache.TTL > 0 {
		packages = repository.NewCachedPackageRepository(packages, settings.Cache.TTL)
	}
	a.Packages = packages
	a.Queries = repository.NewQueryRepository(db)

	opts := ingest.OptionsFromSettings(&settings.Ingest)
	opts.Metrics = metrics.Ingest
	opts.Logger = central.Module(logger.ModuleIngest)
	a.Loader = ingest.NewLoader(db, packages, opts)

	return a, nil
}

// Logger returns the logger of one module.
func (a *App) Logger(module string) logger.Logger {
	if a.central == nil {
		return logger.Discard()
	}
	return a.central.Module(module)
}

// Close releases the store, flushes telemetry and closes log files.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
		a.Store = nil
	}

	telemetry.Close()

	if a.central != nil {
		if err := a.central.Close(); err != nil {
			errs = append(errs, err)
		}
		a.central = nil
	}
	return errors.Join(errs...)
}
