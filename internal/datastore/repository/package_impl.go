package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

// packageRepository implements PackageRepository.
type packageRepository struct {
	db *gorm.DB
}

// NewPackageRepository creates a new PackageRepository.
func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

// WithTx returns a repository using tx.
func (r *packageRepository) WithTx(tx *gorm.DB) PackageRepository {
	return &packageRepository{db: tx}
}

// RegisterOrGet looks the identity up and inserts it when missing. A unique
// violation on insert means another writer got there first; its row is
// returned when this transaction can see it.
func (r *packageRepository) RegisterOrGet(ctx context.Context, id zcl.Identity) (*entities.Package, bool, error) {
	if err := id.Validate(); err != nil {
		return nil, false, err
	}

	existing, err := r.GetByIdentity(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrPackageNotFound) {
		return nil, false, err
	}

	pkg := entities.Package{
		Path:     id.Locator,
		Version:  id.Version,
		Category: id.Category,
	}
	createErr := r.db.WithContext(ctx).Table(tablePackages).Create(&pkg).Error
	if createErr == nil {
		return &pkg, true, nil
	}
	if !datastore.IsDuplicateKey(createErr) {
		return nil, false, datastore.ClassifyError("register_package", createErr)
	}

	existing, err = r.GetByIdentity(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if errors.Is(err, ErrPackageNotFound) {
		return nil, false, ErrDuplicateRegistration
	}
	return nil, false, err
}

// GetByID retrieves a package by its ID.
func (r *packageRepository) GetByID(ctx context.Context, id uint) (*entities.Package, error) {
	var pkg entities.Package
	err := r.db.WithContext(ctx).Table(tablePackages).First(&pkg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, datastore.ClassifyError("get_package", err)
	}
	return &pkg, nil
}

// GetByIdentity retrieves a package by its identity tuple.
func (r *packageRepository) GetByIdentity(ctx context.Context, id zcl.Identity) (*entities.Package, error) {
	var pkg entities.Package
	err := r.db.WithContext(ctx).Table(tablePackages).
		Where("path = ? AND version = ? AND category = ?", id.Locator, id.Version, id.Category).
		First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, datastore.ClassifyError("get_package", err)
	}
	return &pkg, nil
}

// GetByCategory lists packages of one category.
func (r *packageRepository) GetByCategory(ctx context.Context, category string) ([]*entities.Package, error) {
	var pkgs []*entities.Package
	err := r.db.WithContext(ctx).Table(tablePackages).
		Where("category = ?", category).
		Order("id ASC").
		Find(&pkgs).Error
	if err != nil {
		return nil, datastore.ClassifyError("list_packages", err)
	}
	return pkgs, nil
}

// GetAll lists every package.
func (r *packageRepository) GetAll(ctx context.Context) ([]*entities.Package, error) {
	var pkgs []*entities.Package
	err := r.db.WithContext(ctx).Table(tablePackages).Order("id ASC").Find(&pkgs).Error
	if err != nil {
		return nil, datastore.ClassifyError("list_packages", err)
	}
	return pkgs, nil
}

// Delete removes the package rows children first. The schema cascades too;
// deleting explicitly keeps the self reference on commands from fighting the
// cascade on MySQL.
func (r *packageRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(tablePackages).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPackageNotFound
		}

		if err := tx.Table(tableCommands).
			Where("package_ref = ? AND response_ref IS NOT NULL", id).
			Update("response_ref", nil).Error; err != nil {
			return err
		}

		for i := len(packageScopedTables) - 1; i >= 0; i-- {
			if err := tx.Exec("DELETE FROM "+packageScopedTables[i]+" WHERE package_ref = ?", id).Error; err != nil {
				return err
			}
		}

		return tx.Exec("DELETE FROM "+tablePackages+" WHERE id = ?", id).Error
	})
	if errors.Is(err, ErrPackageNotFound) {
		return err
	}
	return datastore.ClassifyError("delete_package", err)
}
