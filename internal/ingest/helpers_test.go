package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/zcl"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	m, err := datastore.NewSQLiteManager(datastore.Config{Path: filepath.Join(t.TempDir(), "ingest.db")})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m.DB()
}

func newTestLoader(t *testing.T, opts Options) (*Loader, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return NewLoader(db, repository.NewPackageRepository(db), opts), db
}

func identity(version string) zcl.Identity {
	return zcl.Identity{Locator: "/defs/zcl.yaml", Version: version, Category: zcl.CategoryZclProperties}
}

// sampleDescription has three clusters (a standard On/Off, a vendor variant
// of it and Level Control) and one of every other entity kind.
//
// Response naming in it:
//   - Foo -> FooResponse by convention
//   - MoveRequest -> MoveResponse by convention
//   - Step -> StepDone by explicit name
//   - BarRequest has no response in its cluster; BarResponse lives in
//     Level Control and must not be picked
func sampleDescription() *zcl.PackageDescription {
	return &zcl.PackageDescription{
		Domains: []zcl.Domain{{Name: "General"}, {Name: "Lighting"}},
		Clusters: []zcl.Cluster{
			{
				Code:   6,
				Name:   "On/Off",
				Domain: "General",
				Commands: []zcl.Command{
					{Code: 0, Name: "Foo", Source: zcl.SourceClient, Args: []zcl.Argument{
						{Name: "first", Type: "int8u"},
						{Name: "second", Type: "int16u", Optional: true},
					}},
					{Code: 1, Name: "FooResponse", Source: zcl.SourceServer},
					{Code: 2, Name: "BarRequest", Source: zcl.SourceClient},
					{Code: 3, Name: "Toggle", Source: zcl.SourceClient},
				},
				Attributes: []zcl.Attribute{
					{Code: 0, Name: "on off", Type: "boolean", Side: zcl.SideServer, Reportable: true},
					{Code: 0xFFFD, Name: "cluster revision", Type: "int16u", Side: zcl.SideClient, Default: "1"},
				},
			},
			{
				Code:             6,
				ManufacturerCode: zcl.Mfg(0x1002),
				Name:             "Vendor On/Off",
				Commands: []zcl.Command{
					{Code: 0, ManufacturerCode: zcl.Mfg(0x1002), Name: "Blink", Source: zcl.SourceClient},
				},
				Attributes: []zcl.Attribute{
					{Code: 0, ManufacturerCode: zcl.Mfg(0x1002), Name: "glow", Type: "int8u", Side: zcl.SideServer},
				},
			},
			{
				Code:   8,
				Name:   "Level Control",
				Domain: "Lighting",
				Commands: []zcl.Command{
					{Code: 0, Name: "MoveRequest", Source: zcl.SourceClient, Args: []zcl.Argument{{Name: "level", Type: "int8u"}}},
					{Code: 1, Name: "MoveResponse", Source: zcl.SourceServer},
					{Code: 2, Name: "Step", Source: zcl.SourceClient, Response: "StepDone"},
					{Code: 3, Name: "StepDone", Source: zcl.SourceServer},
					{Code: 4, Name: "BarResponse", Source: zcl.SourceServer},
				},
				Attributes: []zcl.Attribute{
					{Code: 0, Name: "current level", Type: "int8u", Side: zcl.SideServer},
				},
			},
		},
		Enums: []zcl.Enum{
			{Name: "Mode", Type: "enum8", Items: []zcl.EnumItem{{Name: "Up", Value: 0}, {Name: "Down", Value: 1}}},
		},
		Bitmaps: []zcl.Bitmap{
			{Name: "Options", Type: "bitmap8", Fields: []zcl.BitmapField{{Name: "ExecuteIfOff", Mask: 0x01}}},
		},
		Structs: []zcl.Struct{
			{Name: "Pair", Items: []zcl.StructItem{{Name: "a", Type: "int8u"}, {Name: "b", Type: "int8u", Array: true}}},
		},
		DeviceTypes: []zcl.DeviceType{
			{Code: 0x0100, ProfileID: 0x0104, Name: "On/Off Light", Clusters: []zcl.DeviceTypeCluster{
				{Code: 6, Name: "On/Off", Server: true},
				{Code: 8, Name: "Level Control", Server: true},
				{Code: 0x0300, Name: "Color Control", Server: true},
			}},
		},
		Atomics: []zcl.Atomic{
			{Name: "uint8", TypeID: 0x20, Size: 1, Discrete: false},
			{Name: "char_string", TypeID: 0x42, String: true},
		},
		Options: []zcl.Option{
			{Category: zcl.OptionDefaultResponsePolicy, Code: zcl.DefaultResponseAlways, Label: "Always"},
		},
	}
}

// expectedCounts is what sampleDescription normalizes to.
var expectedCounts = Counts{
	Domains:            2,
	Clusters:           3,
	Commands:           10,
	CommandArgs:        3,
	Attributes:         4,
	Enums:              1,
	EnumItems:          2,
	Bitmaps:            1,
	BitmapFields:       1,
	Structs:            1,
	StructItems:        2,
	DeviceTypes:        1,
	DeviceTypeClusters: 3,
	Atomics:            2,
	Options:            1,
}

// tableRows returns the per table row counts of packageID.
func tableRows(t *testing.T, db *gorm.DB, packageID uint) map[string]int64 {
	t.Helper()
	stats, err := repository.NewQueryRepository(db).Stats(context.Background(), packageID)
	require.NoError(t, err)
	rows := make(map[string]int64, len(stats))
	for _, tc := range stats {
		rows[tc.Table] = tc.Rows
	}
	return rows
}

func countPackages(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table("packages").Count(&n).Error)
	return n
}
