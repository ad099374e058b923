package ingest

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/zcl"
)

// DefaultBatchSize is used when a Normalizer is built with a non-positive batch size.
const DefaultBatchSize = 100

// Counts is the number of rows a normalization wrote per entity kind.
type Counts struct {
	Domains            int `json:"domains"`
	Clusters           int `json:"clusters"`
	Commands           int `json:"commands"`
	CommandArgs        int `json:"commandArgs"`
	Attributes         int `json:"attributes"`
	Enums              int `json:"enums"`
	EnumItems          int `json:"enumItems"`
	Bitmaps            int `json:"bitmaps"`
	BitmapFields       int `json:"bitmapFields"`
	Structs            int `json:"structs"`
	StructItems        int `json:"structItems"`
	DeviceTypes        int `json:"deviceTypes"`
	DeviceTypeClusters int `json:"deviceTypeClusters"`
	Atomics            int `json:"atomics"`
	Options            int `json:"options"`
}

// ByTable returns the counts keyed by table name.
func (c Counts) ByTable() map[string]int {
	return map[string]int{
		entities.Domain{}.TableName():            c.Domains,
		entities.Cluster{}.TableName():           c.Clusters,
		entities.Command{}.TableName():           c.Commands,
		entities.CommandArg{}.TableName():        c.CommandArgs,
		entities.Attribute{}.TableName():         c.Attributes,
		entities.Enum{}.TableName():              c.Enums,
		entities.EnumItem{}.TableName():          c.EnumItems,
		entities.Bitmap{}.TableName():            c.Bitmaps,
		entities.BitmapField{}.TableName():       c.BitmapFields,
		entities.Struct{}.TableName():            c.Structs,
		entities.StructItem{}.TableName():        c.StructItems,
		entities.DeviceType{}.TableName():        c.DeviceTypes,
		entities.DeviceTypeCluster{}.TableName(): c.DeviceTypeClusters,
		entities.Atomic{}.TableName():            c.Atomics,
		entities.PackageOption{}.TableName():     c.Options,
	}
}

// Total is the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c.ByTable() {
		total += n
	}
	return total
}

// Normalizer flattens a PackageDescription into package scoped rows.
type Normalizer struct {
	batchSize int
	log       logger.Logger
}

// NewNormalizer creates a Normalizer inserting batchSize rows per statement.
func NewNormalizer(batchSize int, log logger.Logger) *Normalizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Normalizer{batchSize: batchSize, log: log}
}

// insertRows writes rows in batches. Primary keys are written back into rows.
func insertRows[T any](ctx context.Context, tx *gorm.DB, table string, rows []*T, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return datastore.ClassifyError("normalize_"+table, err)
	}
	return nil
}

// Normalize writes every entity of desc for packageID using tx. Parents are
// inserted before dependents so child rows can carry their parent's id.
// The description is expected to have passed Validate; references that
// only resolve against the description itself, such as a cluster's domain,
// are checked here.
func (n *Normalizer) Normalize(ctx context.Context, tx *gorm.DB, packageID uint, desc *zcl.PackageDescription) (Counts, error) {
	var counts Counts
	if desc == nil {
		return counts, nil
	}

	domainIDs, err := n.writeDomains(ctx, tx, packageID, desc.Domains, &counts)
	if err != nil {
		return Counts{}, err
	}

	clusters, err := n.writeClusters(ctx, tx, packageID, desc.Clusters, domainIDs, &counts)
	if err != nil {
		return Counts{}, err
	}

	if err := n.writeCommands(ctx, tx, packageID, desc.Clusters, clusters, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeAttributes(ctx, tx, packageID, desc.Clusters, clusters, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeEnums(ctx, tx, packageID, desc.Enums, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeBitmaps(ctx, tx, packageID, desc.Bitmaps, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeStructs(ctx, tx, packageID, desc.Structs, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeDeviceTypes(ctx, tx, packageID, desc.DeviceTypes, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeAtomics(ctx, tx, packageID, desc.Atomics, &counts); err != nil {
		return Counts{}, err
	}
	if err := n.writeOptions(ctx, tx, packageID, desc.Options, &counts); err != nil {
		return Counts{}, err
	}

	n.log.WithContext(ctx).Debug("package normalized",
		logger.Uint64("package_id", uint64(packageID)),
		logger.Int("rows", counts.Total()))
	return counts, nil
}

func (n *Normalizer) writeDomains(ctx context.Context, tx *gorm.DB, packageID uint, domains []zcl.Domain, counts *Counts) (map[string]uint, error) {
	rows := make([]*entities.Domain, 0, len(domains))
	for _, d := range domains {
		rows = append(rows, &entities.Domain{PackageRef: packageID, Name: d.Name})
	}
	if err := insertRows(ctx, tx, "domains", rows, n.batchSize); err != nil {
		return nil, err
	}

	ids := make(map[string]uint, len(rows))
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	counts.Domains = len(rows)
	return ids, nil
}

func (n *Normalizer) writeClusters(ctx context.Context, tx *gorm.DB, packageID uint, clusters []zcl.Cluster, domainIDs map[string]uint, counts *Counts) ([]*entities.Cluster, error) {
	rows := make([]*entities.Cluster, 0, len(clusters))
	for i := range clusters {
		c := &clusters[i]
		row := &entities.Cluster{
			PackageRef:       packageID,
			Code:             c.Code,
			ManufacturerCode: c.ManufacturerCode,
			Name:             c.Name,
			Define:           c.Define,
			Description:      c.Description,
			Revision:         c.Revision,
			Singleton:        c.Singleton,
		}
		if c.Domain != "" {
			id, ok := domainIDs[c.Domain]
			if !ok {
				return nil, &zcl.ParseInputError{
					Path:   zcl.EntityPath("", "clusters", i, c.Name),
					Field:  "domain",
					Reason: fmt.Sprintf("unknown domain %q", c.Domain),
				}
			}
			row.DomainRef = &id
		}
		rows = append(rows, row)
	}
	if err := insertRows(ctx, tx, "clusters", rows, n.batchSize); err != nil {
		return nil, err
	}
	counts.Clusters = len(rows)
	return rows, nil
}

func (n *Normalizer) writeCommands(ctx context.Context, tx *gorm.DB, packageID uint, clusters []zcl.Cluster, clusterRows []*entities.Cluster, counts *Counts) error {
	var commands []*entities.Command
	var owners []*zcl.Command
	for i := range clusters {
		for j := range clusters[i].Commands {
			cmd := &clusters[i].Commands[j]
			commands = append(commands, &entities.Command{
				PackageRef:       packageID,
				ClusterRef:       clusterRows[i].ID,
				Code:             cmd.Code,
				ManufacturerCode: cmd.ManufacturerCode,
				Name:             cmd.Name,
				Description:      cmd.Description,
				Source:           cmd.Source,
				IsOptional:       cmd.Optional,
				ResponseName:     cmd.Response,
			})
			owners = append(owners, cmd)
		}
	}
	if err := insertRows(ctx, tx, "commands", commands, n.batchSize); err != nil {
		return err
	}

	var args []*entities.CommandArg
	for k, cmd := range owners {
		for ordinal, arg := range cmd.Args {
			args = append(args, &entities.CommandArg{
				PackageRef: packageID,
				CommandRef: commands[k].ID,
				Ordinal:    ordinal,
				Name:       arg.Name,
				Type:       arg.Type,
				IsArray:    arg.Array,
				IsOptional: arg.Optional,
				IsNullable: arg.Nullable,
			})
		}
	}
	if err := insertRows(ctx, tx, "command_args", args, n.batchSize); err != nil {
		return err
	}

	counts.Commands = len(commands)
	counts.CommandArgs = len(args)
	return nil
}

func (n *Normalizer) writeAttributes(ctx context.Context, tx *gorm.DB, packageID uint, clusters []zcl.Cluster, clusterRows []*entities.Cluster, counts *Counts) error {
	var rows []*entities.Attribute
	for i := range clusters {
		for _, attr := range clusters[i].Attributes {
			rows = append(rows, &entities.Attribute{
				PackageRef:       packageID,
				ClusterRef:       clusterRows[i].ID,
				Code:             attr.Code,
				ManufacturerCode: attr.ManufacturerCode,
				Name:             attr.Name,
				Type:             attr.Type,
				Side:             attr.Side,
				Define:           attr.Define,
				DefaultValue:     attr.Default,
				Min:              attr.Min,
				Max:              attr.Max,
				IsWritable:       attr.Writable,
				IsOptional:       attr.Optional,
				IsReportable:     attr.Reportable,
			})
		}
	}
	if err := insertRows(ctx, tx, "attributes", rows, n.batchSize); err != nil {
		return err
	}
	counts.Attributes = len(rows)
	return nil
}

func (n *Normalizer) writeEnums(ctx context.Context, tx *gorm.DB, packageID uint, enums []zcl.Enum, counts *Counts) error {
	rows := make([]*entities.Enum, 0, len(enums))
	for _, e := range enums {
		rows = append(rows, &entities.Enum{PackageRef: packageID, Name: e.Name, Type: e.Type})
	}
	if err := insertRows(ctx, tx, "enums", rows, n.batchSize); err != nil {
		return err
	}

	var items []*entities.EnumItem
	for i, e := range enums {
		for ordinal, item := range e.Items {
			items = append(items, &entities.EnumItem{
				PackageRef: packageID,
				EnumRef:    rows[i].ID,
				Name:       item.Name,
				Value:      item.Value,
				Ordinal:    ordinal,
			})
		}
	}
	if err := insertRows(ctx, tx, "enum_items", items, n.batchSize); err != nil {
		return err
	}

	counts.Enums = len(rows)
	counts.EnumItems = len(items)
	return nil
}

func (n *Normalizer) writeBitmaps(ctx context.Context, tx *gorm.DB, packageID uint, bitmaps []zcl.Bitmap, counts *Counts) error {
	rows := make([]*entities.Bitmap, 0, len(bitmaps))
	for _, b := range bitmaps {
		rows = append(rows, &entities.Bitmap{PackageRef: packageID, Name: b.Name, Type: b.Type})
	}
	if err := insertRows(ctx, tx, "bitmaps", rows, n.batchSize); err != nil {
		return err
	}

	var fields []*entities.BitmapField
	for i, b := range bitmaps {
		for ordinal, f := range b.Fields {
			fields = append(fields, &entities.BitmapField{
				PackageRef: packageID,
				BitmapRef:  rows[i].ID,
				Name:       f.Name,
				Mask:       f.Mask,
				Ordinal:    ordinal,
			})
		}
	}
	if err := insertRows(ctx, tx, "bitmap_fields", fields, n.batchSize); err != nil {
		return err
	}

	counts.Bitmaps = len(rows)
	counts.BitmapFields = len(fields)
	return nil
}

func (n *Normalizer) writeStructs(ctx context.Context, tx *gorm.DB, packageID uint, structs []zcl.Struct, counts *Counts) error {
	rows := make([]*entities.Struct, 0, len(structs))
	for _, s := range structs {
		rows = append(rows, &entities.Struct{PackageRef: packageID, Name: s.Name})
	}
	if err := insertRows(ctx, tx, "structs", rows, n.batchSize); err != nil {
		return err
	}

	var items []*entities.StructItem
	for i, s := range structs {
		for ordinal, item := range s.Items {
			items = append(items, &entities.StructItem{
				PackageRef: packageID,
				StructRef:  rows[i].ID,
				Name:       item.Name,
				Type:       item.Type,
				IsArray:    item.Array,
				Ordinal:    ordinal,
			})
		}
	}
	if err := insertRows(ctx, tx, "struct_items", items, n.batchSize); err != nil {
		return err
	}

	counts.Structs = len(rows)
	counts.StructItems = len(items)
	return nil
}

// writeDeviceTypes stores device type cluster references by code only; the
// Resolver links them to cluster rows.
func (n *Normalizer) writeDeviceTypes(ctx context.Context, tx *gorm.DB, packageID uint, deviceTypes []zcl.DeviceType, counts *Counts) error {
	rows := make([]*entities.DeviceType, 0, len(deviceTypes))
	for _, dt := range deviceTypes {
		rows = append(rows, &entities.DeviceType{
			PackageRef:  packageID,
			Code:        dt.Code,
			ProfileID:   dt.ProfileID,
			Domain:      dt.Domain,
			Name:        dt.Name,
			Description: dt.Description,
		})
	}
	if err := insertRows(ctx, tx, "device_types", rows, n.batchSize); err != nil {
		return err
	}

	var links []*entities.DeviceTypeCluster
	for i, dt := range deviceTypes {
		for _, c := range dt.Clusters {
			links = append(links, &entities.DeviceTypeCluster{
				PackageRef:    packageID,
				DeviceTypeRef: rows[i].ID,
				ClusterCode:   c.Code,
				ClusterName:   c.Name,
				IncludeClient: c.Client,
				IncludeServer: c.Server,
			})
		}
	}
	if err := insertRows(ctx, tx, "device_type_clusters", links, n.batchSize); err != nil {
		return err
	}

	counts.DeviceTypes = len(rows)
	counts.DeviceTypeClusters = len(links)
	return nil
}

func (n *Normalizer) writeAtomics(ctx context.Context, tx *gorm.DB, packageID uint, atomics []zcl.Atomic, counts *Counts) error {
	rows := make([]*entities.Atomic, 0, len(atomics))
	for _, a := range atomics {
		rows = append(rows, &entities.Atomic{
			PackageRef: packageID,
			Name:       a.Name,
			TypeID:     a.TypeID,
			Size:       a.Size,
			IsDiscrete: a.Discrete,
			IsString:   a.String,
		})
	}
	if err := insertRows(ctx, tx, "atomics", rows, n.batchSize); err != nil {
		return err
	}
	counts.Atomics = len(rows)
	return nil
}

func (n *Normalizer) writeOptions(ctx context.Context, tx *gorm.DB, packageID uint, options []zcl.Option, counts *Counts) error {
	rows := make([]*entities.PackageOption, 0, len(options))
	for _, o := range options {
		rows = append(rows, &entities.PackageOption{
			PackageRef: packageID,
			Category:   o.Category,
			Code:       o.Code,
			Label:      o.Label,
		})
	}
	if err := insertRows(ctx, tx, "package_options", rows, n.batchSize); err != nil {
		return err
	}
	counts.Options = len(rows)
	return nil
}
