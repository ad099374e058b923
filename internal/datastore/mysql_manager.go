package datastore

import (
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/logger"
)

// MySQLConfig holds MySQL manager configuration.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Logger             logger.Logger
	SlowQueryThreshold time.Duration
}

// MySQLManager handles the store on a MySQL server.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
}

// DSN builds the go-sql-driver DSN. Times are read back as UTC time.Time.
func (c *MySQLConfig) DSN() string {
	dc := mysqldriver.NewConfig()
	dc.User = c.Username
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, c.Port)
	dc.DBName = c.Database
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

// NewMySQLManager connects to MySQL and configures the connection pool.
func NewMySQLManager(cfg *MySQLConfig) (*MySQLManager, error) {
	dsn := cfg.DSN()

	db, err := gorm.Open(mysql.Open(dsn), gormConfig(cfg.Logger, cfg.SlowQueryThreshold))
	if err != nil {
		return nil, ClassifyError("open_mysql", fmt.Errorf("connecting with %s: %w", logger.RedactDSN(dsn), err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(valueOr(cfg.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(valueOr(cfg.MaxOpenConns, 100))
	sqlDB.SetConnMaxLifetime(valueOr(cfg.ConnMaxLifetime, time.Hour))

	return &MySQLManager{
		db:       db,
		location: fmt.Sprintf("%s:%s/%s", cfg.Host, cfg.Port, cfg.Database),
	}, nil
}

func valueOr[T int | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

// Initialize migrates the schema.
func (m *MySQLManager) Initialize() error {
	return migrate(m.db)
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database location (host:port/database).
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Delete drops every store table in reverse dependency order.
func (m *MySQLManager) Delete() error {
	models := entities.All()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}

// Exists checks if the package registry table exists.
func (m *MySQLManager) Exists() bool {
	return m.db.Migrator().HasTable(&entities.Package{})
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}
