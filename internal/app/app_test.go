package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/definition"
	"github.com/tphakala/zclstore/internal/logger"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Database: conf.DatabaseSettings{
			Type:   conf.DatabaseSQLite,
			SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "app.db")},
		},
		Ingest: conf.IngestSettings{MaxConcurrentLoads: 2, BatchSize: 10},
		Cache:  conf.CacheSettings{TTL: time.Minute},
		Logging: logger.LoggingConfig{
			Console: &logger.ConsoleOutput{Enabled: false, Level: "error"},
		},
	}
}

func TestOpenWiresLoaderAndQueries(t *testing.T) {
	a, err := Open(testSettings(t), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	desc, id, err := definition.LoadPackage(filepath.Join("..", "definition", "testdata", "zcl.yaml"))
	require.NoError(t, err)

	res, err := a.Loader.LoadPackage(t.Context(), desc, id)
	require.NoError(t, err)
	assert.True(t, res.IsNew)

	pkgs, err := a.Packages.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	clusters, err := a.Queries.Clusters(t.Context(), res.PackageID)
	require.NoError(t, err)
	assert.Len(t, clusters, 3)

	n, err := testutil.GatherAndCount(a.Metrics.Registry(), "go_sql_open_connections", "zclstore_ingest_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLivePackagesSeeDeletionsByOtherWriters(t *testing.T) {
	a, err := Open(testSettings(t), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	desc, id, err := definition.LoadPackage(filepath.Join("..", "definition", "testdata", "zcl.yaml"))
	require.NoError(t, err)
	res, err := a.Loader.LoadPackage(t.Context(), desc, id)
	require.NoError(t, err)

	_, err = a.Packages.GetByID(t.Context(), res.PackageID)
	require.NoError(t, err)
	_, err = a.LivePackages.GetByID(t.Context(), res.PackageID)
	require.NoError(t, err)

	// A separate repository stands in for "packages delete" run by another
	// process: the cache of a.Packages is never told.
	other := repository.NewPackageRepository(a.Store.DB())
	require.NoError(t, other.Delete(t.Context(), res.PackageID))

	_, err = a.LivePackages.GetByID(t.Context(), res.PackageID)
	require.ErrorIs(t, err, repository.ErrPackageNotFound)

	_, err = a.LivePackages.GetByIdentity(t.Context(), id)
	require.ErrorIs(t, err, repository.ErrPackageNotFound)
}

func TestOpenRejectsUnknownDatabase(t *testing.T) {
	settings := testSettings(t)
	settings.Database.Type = "oracle"

	_, err := Open(settings, "test")
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	a, err := Open(testSettings(t), "test")
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
