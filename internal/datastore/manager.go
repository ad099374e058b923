// Package datastore opens the definition store and classifies storage errors.
// The schema lives in datastore/entities, reads and writes in
// datastore/repository.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
)

// Manager defines the interface for store lifecycle operations.
type Manager interface {
	// Initialize migrates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/db for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// Delete removes the store (file for SQLite, tables for MySQL).
	Delete() error
	// Exists checks if the store has been created.
	Exists() bool
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// Config holds SQLite manager configuration.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path string
	// Logger receives GORM output; nil discards it.
	Logger logger.Logger
	// SlowQueryThreshold promotes slow statements to WARN, 0 disables.
	SlowQueryThreshold time.Duration
}

// SQLiteManager handles the store in an SQLite file.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// sqliteDSN enables WAL, waits on busy locks and enforces foreign keys.
// Writers BEGIN IMMEDIATE so two loads never both hold a read snapshot and
// then fail to upgrade it.
func sqliteDSN(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate", path)
}

// NewSQLiteManager opens (creating if needed) the SQLite store at cfg.Path.
func NewSQLiteManager(cfg Config) (*SQLiteManager, error) {
	if cfg.Path == "" {
		return nil, errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("operation", "create_data_dir").
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.Path)), gormConfig(cfg.Logger, cfg.SlowQueryThreshold))
	if err != nil {
		return nil, ClassifyError("open_sqlite", err)
	}

	return &SQLiteManager{
		db:     db,
		dbPath: cfg.Path,
	}, nil
}

// gormConfig is shared by both backends. TranslateError turns unique
// violations into gorm.ErrDuplicatedKey for both drivers.
func gormConfig(log logger.Logger, slowThreshold time.Duration) *gorm.Config {
	if log == nil {
		log = logger.Discard()
	}
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowThreshold),
		TranslateError: true,
	}
}

// Initialize migrates the schema.
func (m *SQLiteManager) Initialize() error {
	return migrate(m.db)
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entities.All()...); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Build()
	}
	return nil
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Delete closes the store and removes the database file with its WAL and SHM
// companions.
func (m *SQLiteManager) Delete() error {
	if err := m.Close(); err != nil {
		return fmt.Errorf("failed to close database before deletion: %w", err)
	}

	if err := os.Remove(m.dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	// The companions may not exist
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(m.dbPath + suffix)
	}

	return nil
}

// Exists checks if the database file exists.
func (m *SQLiteManager) Exists() bool {
	_, err := os.Stat(m.dbPath)
	return err == nil
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

// NewManager opens the backend selected in settings and migrates it.
// log should already be scoped to the datastore module.
func NewManager(settings *conf.Settings, dbLog logger.Logger) (Manager, error) {
	if dbLog == nil {
		dbLog = logger.Discard()
	}

	var (
		m   Manager
		err error
	)
	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		my := settings.Database.MySQL
		m, err = NewMySQLManager(&MySQLConfig{
			Host:               my.Host,
			Port:               my.Port,
			Username:           my.Username,
			Password:           my.Password,
			Database:           my.Database,
			MaxOpenConns:       my.MaxOpenConns,
			MaxIdleConns:       my.MaxIdleConns,
			ConnMaxLifetime:    my.ConnMaxLifetime,
			Logger:             dbLog,
			SlowQueryThreshold: settings.Database.SlowQueryThreshold,
		})
	case conf.DatabaseSQLite, "":
		m, err = NewSQLiteManager(Config{
			Path:               settings.Database.SQLite.Path,
			Logger:             dbLog,
			SlowQueryThreshold: settings.Database.SlowQueryThreshold,
		})
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err != nil {
		return nil, err
	}

	if err := m.Initialize(); err != nil {
		_ = m.Close()
		return nil, err
	}

	dbLog.Info("database ready",
		logger.String("type", settings.Database.Type),
		logger.String("location", m.Path()))

	return m, nil
}
