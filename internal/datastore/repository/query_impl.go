package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

// queryRepository implements QueryRepository.
type queryRepository struct {
	db *gorm.DB
}

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(db *gorm.DB) QueryRepository {
	return &queryRepository{db: db}
}

// listByPackage loads every row of table owned by packageID.
func listByPackage[T any](ctx context.Context, db *gorm.DB, table string, packageID uint, order string) ([]*T, error) {
	var rows []*T
	err := db.WithContext(ctx).Table(table).
		Where("package_ref = ?", packageID).
		Order(order).
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_"+table, err)
	}
	return rows, nil
}

// firstByID loads one row by primary key, mapping a miss to notFound.
func firstByID[T any](ctx context.Context, db *gorm.DB, table string, id uint, notFound error) (*T, error) {
	var row T
	err := db.WithContext(ctx).Table(table).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, datastore.ClassifyError("query_"+table, err)
	}
	return &row, nil
}

// NULL manufacturer codes sort first on both SQLite and MySQL, so standard
// entities precede their manufacturer specific variants.
func (r *queryRepository) Clusters(ctx context.Context, packageID uint) ([]*entities.Cluster, error) {
	return listByPackage[entities.Cluster](ctx, r.db, tableClusters, packageID, "code ASC, manufacturer_code ASC, id ASC")
}

func (r *queryRepository) ClusterByID(ctx context.Context, id uint) (*entities.Cluster, error) {
	return firstByID[entities.Cluster](ctx, r.db, tableClusters, id, ErrClusterNotFound)
}

func (r *queryRepository) ClustersByCodes(ctx context.Context, packageID uint, codes []int64) ([]*entities.Cluster, error) {
	result := make([]*entities.Cluster, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	var rows []*entities.Cluster
	err := r.db.WithContext(ctx).Table(tableClusters).
		Where("package_ref = ? AND code IN ?", packageID, codes).
		Order("manufacturer_code ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_clusters", err)
	}

	byCode := make(map[int64]*entities.Cluster, len(rows))
	for _, c := range rows {
		if _, seen := byCode[c.Code]; !seen {
			byCode[c.Code] = c
		}
	}
	for i, code := range codes {
		result[i] = byCode[code]
	}
	return result, nil
}

func (r *queryRepository) Commands(ctx context.Context, packageID uint) ([]*entities.Command, error) {
	return listByPackage[entities.Command](ctx, r.db, tableCommands, packageID, "cluster_ref ASC, code ASC, manufacturer_code ASC, id ASC")
}

func (r *queryRepository) CommandsByCluster(ctx context.Context, clusterID uint) ([]*entities.Command, error) {
	var rows []*entities.Command
	err := r.db.WithContext(ctx).Table(tableCommands).
		Where("cluster_ref = ?", clusterID).
		Order("code ASC, manufacturer_code ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_commands", err)
	}
	return rows, nil
}

func (r *queryRepository) CommandByID(ctx context.Context, id uint) (*entities.Command, error) {
	return firstByID[entities.Command](ctx, r.db, tableCommands, id, ErrCommandNotFound)
}

func (r *queryRepository) CommandArguments(ctx context.Context, packageID uint) ([]*entities.CommandArg, error) {
	return listByPackage[entities.CommandArg](ctx, r.db, tableCommandArgs, packageID, "command_ref ASC, ordinal ASC")
}

func (r *queryRepository) ArgumentsByCommand(ctx context.Context, commandID uint) ([]*entities.CommandArg, error) {
	var rows []*entities.CommandArg
	err := r.db.WithContext(ctx).Table(tableCommandArgs).
		Where("command_ref = ?", commandID).
		Order("ordinal ASC").
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_command_args", err)
	}
	return rows, nil
}

func (r *queryRepository) Domains(ctx context.Context, packageID uint) ([]*entities.Domain, error) {
	return listByPackage[entities.Domain](ctx, r.db, tableDomains, packageID, "id ASC")
}

func (r *queryRepository) DomainByID(ctx context.Context, id uint) (*entities.Domain, error) {
	return firstByID[entities.Domain](ctx, r.db, tableDomains, id, ErrDomainNotFound)
}

func (r *queryRepository) Attributes(ctx context.Context, packageID uint) ([]*entities.Attribute, error) {
	return listByPackage[entities.Attribute](ctx, r.db, tableAttributes, packageID, "cluster_ref ASC, code ASC, manufacturer_code ASC, id ASC")
}

func (r *queryRepository) AttributesBySide(ctx context.Context, packageID uint, side string) ([]*entities.Attribute, error) {
	var rows []*entities.Attribute
	err := r.db.WithContext(ctx).Table(tableAttributes).
		Where("package_ref = ? AND side = ?", packageID, side).
		Order("cluster_ref ASC, code ASC, manufacturer_code ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_attributes", err)
	}
	return rows, nil
}

func (r *queryRepository) Enums(ctx context.Context, packageID uint) ([]*entities.Enum, error) {
	return listByPackage[entities.Enum](ctx, r.db, tableEnums, packageID, "name ASC, id ASC")
}

func (r *queryRepository) EnumItems(ctx context.Context, packageID uint) ([]*entities.EnumItem, error) {
	return listByPackage[entities.EnumItem](ctx, r.db, tableEnumItems, packageID, "enum_ref ASC, ordinal ASC")
}

func (r *queryRepository) Bitmaps(ctx context.Context, packageID uint) ([]*entities.Bitmap, error) {
	return listByPackage[entities.Bitmap](ctx, r.db, tableBitmaps, packageID, "name ASC, id ASC")
}

func (r *queryRepository) BitmapFields(ctx context.Context, packageID uint) ([]*entities.BitmapField, error) {
	return listByPackage[entities.BitmapField](ctx, r.db, tableBitmapFields, packageID, "bitmap_ref ASC, ordinal ASC")
}

func (r *queryRepository) StructsWithItemCount(ctx context.Context, packageID uint) ([]StructSummary, error) {
	var rows []StructSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.id AS id, s.name AS name, COUNT(si.id) AS item_count
		FROM structs s
		LEFT JOIN struct_items si ON si.struct_ref = s.id
		WHERE s.package_ref = ?
		GROUP BY s.id, s.name
		ORDER BY s.name ASC, s.id ASC`, packageID).
		Scan(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_structs", err)
	}
	return rows, nil
}

func (r *queryRepository) DeviceTypes(ctx context.Context, packageID uint) ([]*entities.DeviceType, error) {
	return listByPackage[entities.DeviceType](ctx, r.db, tableDeviceTypes, packageID, "code ASC, id ASC")
}

func (r *queryRepository) DeviceTypeClusters(ctx context.Context, packageID uint) ([]*entities.DeviceTypeCluster, error) {
	return listByPackage[entities.DeviceTypeCluster](ctx, r.db, tableDeviceTypeClusters, packageID, "device_type_ref ASC, id ASC")
}

func (r *queryRepository) Atomics(ctx context.Context, packageID uint) ([]*entities.Atomic, error) {
	return listByPackage[entities.Atomic](ctx, r.db, tableAtomics, packageID, "type_id ASC, id ASC")
}

func (r *queryRepository) ManufacturerCodes(ctx context.Context, packageID uint, table string) ([]int64, error) {
	if !manufacturerCodeTables[table] {
		return nil, ErrUnsupportedTable
	}

	codes := []int64{}
	err := r.db.WithContext(ctx).Table(table).
		Distinct("manufacturer_code").
		Where("package_ref = ? AND manufacturer_code IS NOT NULL", packageID).
		Order("manufacturer_code ASC").
		Pluck("manufacturer_code", &codes).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_"+table, err)
	}
	return codes, nil
}

func (r *queryRepository) ManufacturerCodeRows(ctx context.Context, packageID uint, table string) ([]ManufacturerCodeRow, error) {
	if !manufacturerCodeTables[table] {
		return nil, ErrUnsupportedTable
	}

	var rows []ManufacturerCodeRow
	err := r.db.WithContext(ctx).Table(table).
		Select("id, name, manufacturer_code").
		Where("package_ref = ? AND manufacturer_code IS NOT NULL", packageID).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_"+table, err)
	}
	return rows, nil
}

func (r *queryRepository) OptionValues(ctx context.Context, packageID uint, category string) ([]*entities.PackageOption, error) {
	var rows []*entities.PackageOption
	err := r.db.WithContext(ctx).Table(tablePackageOptions).
		Where("package_ref = ? AND category = ?", packageID, category).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_package_options", err)
	}
	return rows, nil
}

// ResponseStats applies the request naming rule in Go; LIKE is case
// insensitive under the default collations of both backends.
func (r *queryRepository) ResponseStats(ctx context.Context, packageID uint) (ResponseStats, error) {
	var rows []struct {
		Name        string
		ResponseRef *uint
	}
	err := r.db.WithContext(ctx).Table(tableCommands).
		Select("name, response_ref").
		Where("package_ref = ?", packageID).
		Scan(&rows).Error
	if err != nil {
		return ResponseStats{}, datastore.ClassifyError("query_commands", err)
	}

	var stats ResponseStats
	for _, row := range rows {
		stats.Commands++
		switch {
		case row.ResponseRef != nil:
			stats.WithResponse++
		case zcl.IsRequestName(row.Name):
			stats.UnmatchedRequests++
		}
	}
	return stats, nil
}

func (r *queryRepository) Stats(ctx context.Context, packageID uint) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(packageScopedTables))
	for _, table := range packageScopedTables {
		var n int64
		if err := r.db.WithContext(ctx).Table(table).Where("package_ref = ?", packageID).Count(&n).Error; err != nil {
			return nil, datastore.ClassifyError("count_"+table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

func (r *queryRepository) DuplicateNames(ctx context.Context, packageID uint, table string) ([]DuplicateName, error) {
	if !namedTypeTables[table] {
		return nil, ErrUnsupportedTable
	}

	var rows []DuplicateName
	err := r.db.WithContext(ctx).Table(table).
		Select("name, COUNT(*) AS count").
		Where("package_ref = ?", packageID).
		Group("name").
		Having("COUNT(*) > 1").
		Order("name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, datastore.ClassifyError("query_"+table, err)
	}
	return rows, nil
}
