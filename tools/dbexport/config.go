package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tphakala/zclstore/internal/datastore"
)

// Config holds the configuration for the export tool.
type Config struct {
	// Source database
	SQLitePath string

	// Target database
	MySQLHost        string
	MySQLPort        string
	MySQLUser        string
	MySQLPass        string
	MySQLDatabase    string
	TargetSQLitePath string

	// Copy options
	BatchSize  int
	Clean      bool
	SkipVerify bool
	Verbose    bool

	// Config file path for fallback
	ConfigPath string
}

// Load validates the configuration, falling back to config.yaml for
// connection settings the flags leave empty.
func (c *Config) Load() error {
	if c.SQLitePath == "" || (c.MySQLHost == "" && c.TargetSQLitePath == "") {
		if err := c.loadFromConfigFile(); err != nil && c.SQLitePath == "" {
			return fmt.Errorf("--sqlite-path is required (or provide config.yaml): %w", err)
		}
	}

	if c.SQLitePath == "" {
		return fmt.Errorf("--sqlite-path is required")
	}
	if _, err := os.Stat(c.SQLitePath); os.IsNotExist(err) {
		return fmt.Errorf("SQLite database not found: %s", c.SQLitePath)
	}

	if c.MySQLHost == "" && c.TargetSQLitePath == "" {
		return fmt.Errorf("a target is required: --mysql-host or --target-sqlite-path")
	}
	if c.TargetSQLitePath != "" && filepath.Clean(c.TargetSQLitePath) == filepath.Clean(c.SQLitePath) {
		return fmt.Errorf("source and target are the same file")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch-size must be at least 1")
	}
	if c.BatchSize > 10000 {
		return fmt.Errorf("batch-size too large (max 10000)")
	}

	return nil
}

// loadFromConfigFile reads connection settings from a zclstore config.yaml.
func (c *Config) loadFromConfigFile() error {
	v := viper.New()

	configPath := c.ConfigPath
	if configPath == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			p := filepath.Join(homeDir, ".config", "zclstore", "config.yaml")
			if _, statErr := os.Stat(p); statErr == nil {
				configPath = p
			}
		}
		if configPath == "" {
			configPath = "config.yaml"
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if c.SQLitePath == "" {
		c.SQLitePath = v.GetString("database.sqlite.path")
	}

	if c.MySQLHost == "" && c.TargetSQLitePath == "" {
		c.MySQLHost = v.GetString("database.mysql.host")
		if port := v.GetString("database.mysql.port"); port != "" {
			c.MySQLPort = port
		}
		if user := v.GetString("database.mysql.username"); user != "" {
			c.MySQLUser = user
		}
		c.MySQLPass = v.GetString("database.mysql.password")
		if db := v.GetString("database.mysql.database"); db != "" {
			c.MySQLDatabase = db
		}
	}

	return nil
}

// MySQLConfig returns the target connection settings.
func (c *Config) MySQLConfig() *datastore.MySQLConfig {
	return &datastore.MySQLConfig{
		Host:     c.MySQLHost,
		Port:     c.MySQLPort,
		Username: c.MySQLUser,
		Password: c.MySQLPass,
		Database: c.MySQLDatabase,
	}
}

// TargetDescription names the target without credentials.
func (c *Config) TargetDescription() string {
	if c.TargetSQLitePath != "" {
		return c.TargetSQLitePath
	}
	return c.MySQLUser + "@" + net.JoinHostPort(c.MySQLHost, c.MySQLPort) + "/" + c.MySQLDatabase
}
