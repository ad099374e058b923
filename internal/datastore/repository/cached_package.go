package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

// cachedPackageRepository caches committed package lookups. Packages are
// immutable once committed, so the only invalidation needed is Delete.
// Misses are not cached: a package may be registered at any moment.
//
// Invalidation is local to the process. A package deleted by another
// process stays visible here until its entry expires.
type cachedPackageRepository struct {
	inner PackageRepository
	cache *cache.Cache
}

// NewCachedPackageRepository wraps inner with a read-through cache for
// GetByID and GetByIdentity.
func NewCachedPackageRepository(inner PackageRepository, ttl time.Duration) PackageRepository {
	return &cachedPackageRepository{
		inner: inner,
		cache: cache.New(ttl, ttl*2),
	}
}

func idKey(id uint) string {
	return "id:" + strconv.FormatUint(uint64(id), 10)
}

func identityKey(id zcl.Identity) string {
	return "identity:" + id.Key()
}

func (r *cachedPackageRepository) load(key string) (*entities.Package, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	pkg, ok := v.(entities.Package)
	if !ok {
		return nil, false
	}
	return &pkg, true
}

func (r *cachedPackageRepository) store(pkg *entities.Package) {
	r.cache.Set(idKey(pkg.ID), *pkg, cache.DefaultExpiration)
	r.cache.Set(identityKey(zcl.Identity{Locator: pkg.Path, Version: pkg.Version, Category: pkg.Category}), *pkg, cache.DefaultExpiration)
}

// RegisterOrGet is not cached; registration happens inside load transactions.
func (r *cachedPackageRepository) RegisterOrGet(ctx context.Context, id zcl.Identity) (*entities.Package, bool, error) {
	return r.inner.RegisterOrGet(ctx, id)
}

func (r *cachedPackageRepository) GetByID(ctx context.Context, id uint) (*entities.Package, error) {
	if pkg, ok := r.load(idKey(id)); ok {
		return pkg, nil
	}
	pkg, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(pkg)
	return pkg, nil
}

func (r *cachedPackageRepository) GetByIdentity(ctx context.Context, id zcl.Identity) (*entities.Package, error) {
	if pkg, ok := r.load(identityKey(id)); ok {
		return pkg, nil
	}
	pkg, err := r.inner.GetByIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(pkg)
	return pkg, nil
}

func (r *cachedPackageRepository) GetByCategory(ctx context.Context, category string) ([]*entities.Package, error) {
	return r.inner.GetByCategory(ctx, category)
}

func (r *cachedPackageRepository) GetAll(ctx context.Context) ([]*entities.Package, error) {
	return r.inner.GetAll(ctx)
}

// Delete removes the package and drops both cache entries.
func (r *cachedPackageRepository) Delete(ctx context.Context, id uint) error {
	pkg, lookupErr := r.GetByID(ctx, id)

	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}

	r.cache.Delete(idKey(id))
	if lookupErr == nil {
		r.cache.Delete(identityKey(zcl.Identity{Locator: pkg.Path, Version: pkg.Version, Category: pkg.Category}))
	}
	return nil
}

// WithTx bypasses the cache so uncommitted rows never enter it.
func (r *cachedPackageRepository) WithTx(tx *gorm.DB) PackageRepository {
	return r.inner.WithTx(tx)
}
