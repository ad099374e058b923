package repository

// Table name constants.
const (
	tablePackages           = "packages"
	tableDomains            = "domains"
	tableClusters           = "clusters"
	tableCommands           = "commands"
	tableCommandArgs        = "command_args"
	tableAttributes         = "attributes"
	tableEnums              = "enums"
	tableEnumItems          = "enum_items"
	tableBitmaps            = "bitmaps"
	tableBitmapFields       = "bitmap_fields"
	tableStructs            = "structs"
	tableStructItems        = "struct_items"
	tableDeviceTypes        = "device_types"
	tableDeviceTypeClusters = "device_type_clusters"
	tableAtomics            = "atomics"
	tablePackageOptions     = "package_options"
)

// packageScopedTables lists every table carrying package_ref, parents first.
var packageScopedTables = []string{
	tableDomains,
	tableClusters,
	tableCommands,
	tableCommandArgs,
	tableAttributes,
	tableEnums,
	tableEnumItems,
	tableBitmaps,
	tableBitmapFields,
	tableStructs,
	tableStructItems,
	tableDeviceTypes,
	tableDeviceTypeClusters,
	tableAtomics,
	tablePackageOptions,
}

// Tables with a manufacturer_code column
var manufacturerCodeTables = map[string]bool{
	tableClusters:   true,
	tableCommands:   true,
	tableAttributes: true,
}

// Tables with a name column that may legitimately repeat
var namedTypeTables = map[string]bool{
	tableEnums:   true,
	tableBitmaps: true,
	tableStructs: true,
}

// ManufacturerCodeTables returns the table names accepted by ManufacturerCodes.
func ManufacturerCodeTables() []string {
	return []string{tableClusters, tableCommands, tableAttributes}
}
