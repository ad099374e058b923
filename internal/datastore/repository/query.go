package repository

import (
	"context"

	"github.com/tphakala/zclstore/internal/datastore/entities"
)

// QueryRepository is the read-only surface over normalized packages.
// Every list is scoped to one package and returned in a stable order.
// Readers only ever see committed packages.
type QueryRepository interface {
	// Clusters are ordered by code, then standard before manufacturer specific.
	Clusters(ctx context.Context, packageID uint) ([]*entities.Cluster, error)
	// ClusterByID returns ErrClusterNotFound if there is no such cluster.
	ClusterByID(ctx context.Context, id uint) (*entities.Cluster, error)
	// ClustersByCodes returns one slot per requested code, in request order.
	// A slot is nil when the package has no cluster with that code; when a
	// code has variants the standard cluster wins.
	ClustersByCodes(ctx context.Context, packageID uint, codes []int64) ([]*entities.Cluster, error)

	Commands(ctx context.Context, packageID uint) ([]*entities.Command, error)
	CommandsByCluster(ctx context.Context, clusterID uint) ([]*entities.Command, error)
	// CommandByID returns ErrCommandNotFound if there is no such command.
	CommandByID(ctx context.Context, id uint) (*entities.Command, error)
	CommandArguments(ctx context.Context, packageID uint) ([]*entities.CommandArg, error)
	ArgumentsByCommand(ctx context.Context, commandID uint) ([]*entities.CommandArg, error)

	Domains(ctx context.Context, packageID uint) ([]*entities.Domain, error)
	// DomainByID returns ErrDomainNotFound if there is no such domain.
	DomainByID(ctx context.Context, id uint) (*entities.Domain, error)

	Attributes(ctx context.Context, packageID uint) ([]*entities.Attribute, error)
	AttributesBySide(ctx context.Context, packageID uint, side string) ([]*entities.Attribute, error)

	Enums(ctx context.Context, packageID uint) ([]*entities.Enum, error)
	EnumItems(ctx context.Context, packageID uint) ([]*entities.EnumItem, error)
	Bitmaps(ctx context.Context, packageID uint) ([]*entities.Bitmap, error)
	BitmapFields(ctx context.Context, packageID uint) ([]*entities.BitmapField, error)
	StructsWithItemCount(ctx context.Context, packageID uint) ([]StructSummary, error)
	DeviceTypes(ctx context.Context, packageID uint) ([]*entities.DeviceType, error)
	DeviceTypeClusters(ctx context.Context, packageID uint) ([]*entities.DeviceTypeCluster, error)
	Atomics(ctx context.Context, packageID uint) ([]*entities.Atomic, error)

	// ManufacturerCodes lists distinct non-null manufacturer codes of table,
	// which must be one of ManufacturerCodeTables.
	ManufacturerCodes(ctx context.Context, packageID uint, table string) ([]int64, error)
	// ManufacturerCodeRows lists the manufacturer specific rows of table.
	ManufacturerCodeRows(ctx context.Context, packageID uint, table string) ([]ManufacturerCodeRow, error)

	// OptionValues lists the option values of one category.
	OptionValues(ctx context.Context, packageID uint, category string) ([]*entities.PackageOption, error)

	ResponseStats(ctx context.Context, packageID uint) (ResponseStats, error)
	// Stats counts the rows a package owns, per table.
	Stats(ctx context.Context, packageID uint) ([]TableCount, error)
	// DuplicateNames lists enum, bitmap or struct names declared more than once.
	DuplicateNames(ctx context.Context, packageID uint, table string) ([]DuplicateName, error)
}
