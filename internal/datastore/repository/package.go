package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

// PackageRepository is the package registry, the only authority on package
// identity.
type PackageRepository interface {
	// RegisterOrGet returns the package registered for id, inserting it when
	// absent. isNew is true only for the call that inserted the row.
	// Returns ErrDuplicateRegistration when a concurrent insert won but is not
	// visible yet; retry the enclosing transaction.
	RegisterOrGet(ctx context.Context, id zcl.Identity) (pkg *entities.Package, isNew bool, err error)

	// GetByID returns ErrPackageNotFound if there is no such package.
	GetByID(ctx context.Context, id uint) (*entities.Package, error)

	// GetByIdentity returns ErrPackageNotFound if the tuple is not registered.
	GetByIdentity(ctx context.Context, id zcl.Identity) (*entities.Package, error)

	// GetByCategory lists packages of one category in registration order.
	GetByCategory(ctx context.Context, category string) ([]*entities.Package, error)

	// GetAll lists every package in registration order.
	GetAll(ctx context.Context) ([]*entities.Package, error)

	// Delete removes a package and every row normalized from it.
	// Returns ErrPackageNotFound if there is no such package.
	Delete(ctx context.Context, id uint) error

	// WithTx returns a repository bound to tx. Results are never cached.
	WithTx(tx *gorm.DB) PackageRepository
}
