// Package entities defines the GORM models of the normalized definition store.
//
// Every domain table carries a package_ref foreign key to packages with
// ON DELETE CASCADE, so a package and everything normalized from it live and
// die together. Rows are written once by the ingest transaction and never
// updated afterwards, except for the reference columns filled in by the
// cross-reference pass of the same transaction.
//
// # Registry
//
//   - Package: one row per (path, version, category), unique
//
// # Clusters
//
//   - Domain, Cluster, Command, CommandArg, Attribute
//
// # Types
//
//   - Enum/EnumItem, Bitmap/BitmapField, Struct/StructItem, Atomic
//
// # Profiles and options
//
//   - DeviceType/DeviceTypeCluster, PackageOption
package entities

// All returns one zero value of every entity in dependency order, suitable for
// AutoMigrate.
func All() []any {
	return []any{
		&Package{},
		&Domain{},
		&Cluster{},
		&Command{},
		&CommandArg{},
		&Attribute{},
		&Enum{},
		&EnumItem{},
		&Bitmap{},
		&BitmapField{},
		&Struct{},
		&StructItem{},
		&DeviceType{},
		&DeviceTypeCluster{},
		&Atomic{},
		&PackageOption{},
	}
}
