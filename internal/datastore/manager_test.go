package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/entities"
)

func setupSQLite(t *testing.T) *SQLiteManager {
	t.Helper()
	m, err := NewSQLiteManager(Config{Path: filepath.Join(t.TempDir(), "zcl", "store.db")})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSQLiteManagerCreatesSchema(t *testing.T) {
	m := setupSQLite(t)

	assert.True(t, m.Exists())
	assert.False(t, m.IsMySQL())
	for _, model := range entities.All() {
		assert.True(t, m.DB().Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestSQLiteManagerInitializeIsRepeatable(t *testing.T) {
	m := setupSQLite(t)
	require.NoError(t, m.Initialize())
}

func TestPackageIdentityIsUnique(t *testing.T) {
	m := setupSQLite(t)

	first := entities.Package{Path: "/defs/zcl.yaml", Version: "1", Category: "zclProperties"}
	require.NoError(t, m.DB().Create(&first).Error)

	dup := entities.Package{Path: "/defs/zcl.yaml", Version: "1", Category: "zclProperties"}
	err := m.DB().Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
	assert.False(t, IsTransient(err))

	other := entities.Package{Path: "/defs/zcl.yaml", Version: "2", Category: "zclProperties"}
	require.NoError(t, m.DB().Create(&other).Error)
}

func TestDeletingPackageCascades(t *testing.T) {
	m := setupSQLite(t)
	db := m.DB()

	pkg := entities.Package{Path: "/defs/a.yaml", Category: "zclProperties"}
	require.NoError(t, db.Create(&pkg).Error)
	domain := entities.Domain{PackageRef: pkg.ID, Name: "General"}
	require.NoError(t, db.Create(&domain).Error)
	cluster := entities.Cluster{PackageRef: pkg.ID, DomainRef: &domain.ID, Code: 6, Name: "On/Off"}
	require.NoError(t, db.Create(&cluster).Error)

	require.NoError(t, db.Delete(&entities.Package{}, pkg.ID).Error)

	var clusters, domains int64
	require.NoError(t, db.Model(&entities.Cluster{}).Count(&clusters).Error)
	require.NoError(t, db.Model(&entities.Domain{}).Count(&domains).Error)
	assert.Zero(t, clusters)
	assert.Zero(t, domains)
}

func TestSQLiteManagerDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	m, err := NewSQLiteManager(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	require.True(t, m.Exists())

	require.NoError(t, m.Delete())
	assert.False(t, m.Exists())
	assert.NoFileExists(t, path+"-wal")
}

func TestNewSQLiteManagerRequiresPath(t *testing.T) {
	_, err := NewSQLiteManager(Config{})
	require.Error(t, err)
}

func TestNewManager(t *testing.T) {
	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "store.db")

	m, err := NewManager(settings, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Equal(t, settings.Database.SQLite.Path, m.Path())
	assert.True(t, m.DB().Migrator().HasTable(&entities.Package{}))

	settings.Database.Type = "postgres"
	_, err = NewManager(settings, nil)
	require.Error(t, err)
}

func TestMySQLConfigDSN(t *testing.T) {
	cfg := &MySQLConfig{Host: "db", Port: "3306", Username: "zcl", Password: "pw", Database: "zap"}
	dsn := cfg.DSN()

	assert.Contains(t, dsn, "zcl:pw@tcp(db:3306)/zap?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
