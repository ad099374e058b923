package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	m, err := datastore.NewSQLiteManager(datastore.Config{Path: filepath.Join(t.TempDir(), "repo.db")})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m.DB()
}

func testIdentity(version string) zcl.Identity {
	return zcl.Identity{Locator: "/defs/zcl.yaml", Version: version, Category: zcl.CategoryZclProperties}
}

func TestRegisterOrGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(setupTestDB(t))

	first, isNew, err := repo.RegisterOrGet(ctx, testIdentity("1"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotZero(t, first.ID)

	again, isNew, err := repo.RegisterOrGet(ctx, testIdentity("1"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, again.ID)

	other, isNew, err := repo.RegisterOrGet(ctx, testIdentity("2"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEqual(t, first.ID, other.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRegisterOrGetRejectsInvalidIdentity(t *testing.T) {
	repo := NewPackageRepository(setupTestDB(t))

	_, _, err := repo.RegisterOrGet(context.Background(), zcl.Identity{Version: "1"})
	var pie *zcl.ParseInputError
	require.ErrorAs(t, err, &pie)
}

func TestRegisterOrGetInsideRolledBackTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPackageRepository(db)

	errRollback := assert.AnError
	err := db.Transaction(func(tx *gorm.DB) error {
		_, isNew, err := repo.WithTx(tx).RegisterOrGet(ctx, testIdentity("1"))
		require.NoError(t, err)
		assert.True(t, isNew)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	_, err = repo.GetByIdentity(ctx, testIdentity("1"))
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestPackageLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(setupTestDB(t))

	zclPkg, _, err := repo.RegisterOrGet(ctx, testIdentity("1"))
	require.NoError(t, err)
	_, _, err = repo.RegisterOrGet(ctx, zcl.Identity{Locator: "/defs/matter.yaml", Version: "1", Category: zcl.CategoryMatterXML})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, zclPkg.ID)
	require.NoError(t, err)
	assert.Equal(t, "/defs/zcl.yaml", got.Path)

	matter, err := repo.GetByCategory(ctx, zcl.CategoryMatterXML)
	require.NoError(t, err)
	require.Len(t, matter, 1)
	assert.Equal(t, "/defs/matter.yaml", matter[0].Path)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestDeleteRemovesPackageRows(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPackageRepository(db)

	keep := seedPackage(t, db, testIdentity("keep"))
	drop := seedPackage(t, db, testIdentity("drop"))

	require.NoError(t, repo.Delete(ctx, drop))

	queries := NewQueryRepository(db)
	dropStats, err := queries.Stats(ctx, drop)
	require.NoError(t, err)
	for _, tc := range dropStats {
		assert.Zero(t, tc.Rows, "table %s", tc.Table)
	}

	keepStats, err := queries.Stats(ctx, keep)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rowsOf(keepStats, tableClusters))

	require.ErrorIs(t, repo.Delete(ctx, drop), ErrPackageNotFound)
}

func TestCachedPackageRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCachedPackageRepository(NewPackageRepository(db), time.Minute)

	pkg, isNew, err := repo.RegisterOrGet(ctx, testIdentity("1"))
	require.NoError(t, err)
	require.True(t, isNew)

	_, err = repo.GetByIdentity(ctx, testIdentity("1"))
	require.NoError(t, err)

	// served from cache even though the row changed underneath
	require.NoError(t, db.Exec("UPDATE packages SET version = ? WHERE id = ?", "renamed", pkg.ID).Error)
	cached, err := repo.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", cached.Version)

	require.NoError(t, repo.Delete(ctx, pkg.ID))

	_, err = repo.GetByID(ctx, pkg.ID)
	require.ErrorIs(t, err, ErrPackageNotFound)
	_, err = repo.GetByIdentity(ctx, testIdentity("1"))
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestCachedRepositoryDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCachedPackageRepository(NewPackageRepository(db), time.Minute)

	_, err := repo.GetByIdentity(ctx, testIdentity("1"))
	require.ErrorIs(t, err, ErrPackageNotFound)

	require.NoError(t, db.Create(&entities.Package{Path: "/defs/zcl.yaml", Version: "1", Category: zcl.CategoryZclProperties}).Error)

	_, err = repo.GetByIdentity(ctx, testIdentity("1"))
	require.NoError(t, err)
}

func rowsOf(counts []TableCount, table string) int64 {
	for _, tc := range counts {
		if tc.Table == table {
			return tc.Rows
		}
	}
	return -1
}
