package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/zcl"
)

// seedPackage writes a small package directly through GORM and returns its id.
// Layout: clusters On/Off (std + mfg 0x1002 variant) and Level; On/Off has
// GetStateRequest linked to GetStateResponse plus an unmatched PingRequest.
func seedPackage(t *testing.T, db *gorm.DB, id zcl.Identity) uint {
	t.Helper()

	pkg := entities.Package{Path: id.Locator, Version: id.Version, Category: id.Category}
	require.NoError(t, db.Create(&pkg).Error)
	p := pkg.ID

	domain := entities.Domain{PackageRef: p, Name: "General"}
	require.NoError(t, db.Create(&domain).Error)

	onOff := entities.Cluster{PackageRef: p, DomainRef: &domain.ID, Code: 6, Name: "On/Off"}
	onOffMfg := entities.Cluster{PackageRef: p, Code: 6, ManufacturerCode: zcl.Mfg(0x1002), Name: "Vendor On/Off"}
	level := entities.Cluster{PackageRef: p, DomainRef: &domain.ID, Code: 8, Name: "Level Control"}
	// insert the variant first so id order differs from the preferred order
	require.NoError(t, db.Create(&onOffMfg).Error)
	require.NoError(t, db.Create(&onOff).Error)
	require.NoError(t, db.Create(&level).Error)

	resp := entities.Command{PackageRef: p, ClusterRef: onOff.ID, Code: 2, Name: "GetStateResponse"}
	require.NoError(t, db.Create(&resp).Error)
	req := entities.Command{PackageRef: p, ClusterRef: onOff.ID, Code: 1, Name: "GetStateRequest", ResponseRef: &resp.ID}
	ping := entities.Command{PackageRef: p, ClusterRef: onOff.ID, Code: 3, Name: "PingRequest"}
	mfgCmd := entities.Command{PackageRef: p, ClusterRef: onOffMfg.ID, Code: 0, Name: "Blink", ManufacturerCode: zcl.Mfg(0x1002)}
	require.NoError(t, db.Create(&[]*entities.Command{&req, &ping, &mfgCmd}).Error)

	require.NoError(t, db.Create(&[]entities.CommandArg{
		{PackageRef: p, CommandRef: req.ID, Ordinal: 1, Name: "second", Type: "int8u"},
		{PackageRef: p, CommandRef: req.ID, Ordinal: 0, Name: "first", Type: "int16u"},
	}).Error)

	require.NoError(t, db.Create(&[]entities.Attribute{
		{PackageRef: p, ClusterRef: onOff.ID, Code: 0, Name: "on off", Type: "boolean", Side: zcl.SideServer},
		{PackageRef: p, ClusterRef: onOff.ID, Code: 0xFFFD, Name: "cluster revision", Type: "int16u", Side: zcl.SideClient},
		{PackageRef: p, ClusterRef: onOffMfg.ID, Code: 0, Name: "glow", Type: "int8u", Side: zcl.SideServer, ManufacturerCode: zcl.Mfg(0x1002)},
		{PackageRef: p, ClusterRef: level.ID, Code: 0, Name: "current level", Type: "int8u", Side: zcl.SideServer, ManufacturerCode: zcl.Mfg(0x1002)},
	}).Error)

	mode := entities.Enum{PackageRef: p, Name: "Mode", Type: "enum8"}
	modeAgain := entities.Enum{PackageRef: p, Name: "Mode", Type: "enum8"}
	require.NoError(t, db.Create(&[]*entities.Enum{&mode, &modeAgain}).Error)
	require.NoError(t, db.Create(&[]entities.EnumItem{
		{PackageRef: p, EnumRef: mode.ID, Name: "Up", Value: 0, Ordinal: 0},
		{PackageRef: p, EnumRef: mode.ID, Name: "Down", Value: 1, Ordinal: 1},
	}).Error)

	bitmap := entities.Bitmap{PackageRef: p, Name: "Options", Type: "bitmap8"}
	require.NoError(t, db.Create(&bitmap).Error)
	require.NoError(t, db.Create(&entities.BitmapField{PackageRef: p, BitmapRef: bitmap.ID, Name: "ExecuteIfOff", Mask: 1}).Error)

	pair := entities.Struct{PackageRef: p, Name: "Pair"}
	empty := entities.Struct{PackageRef: p, Name: "Empty"}
	require.NoError(t, db.Create(&[]*entities.Struct{&pair, &empty}).Error)
	require.NoError(t, db.Create(&[]entities.StructItem{
		{PackageRef: p, StructRef: pair.ID, Name: "a", Type: "int8u", Ordinal: 0},
		{PackageRef: p, StructRef: pair.ID, Name: "b", Type: "int8u", Ordinal: 1},
	}).Error)

	light := entities.DeviceType{PackageRef: p, Code: 0x0100, ProfileID: 0x0104, Name: "On/Off Light"}
	require.NoError(t, db.Create(&light).Error)
	require.NoError(t, db.Create(&entities.DeviceTypeCluster{PackageRef: p, DeviceTypeRef: light.ID, ClusterCode: 6, ClusterRef: &onOff.ID, IncludeServer: true}).Error)

	require.NoError(t, db.Create(&[]entities.Atomic{
		{PackageRef: p, Name: "uint16", TypeID: 0x21, Size: 2},
		{PackageRef: p, Name: "uint8", TypeID: 0x20, Size: 1},
	}).Error)

	require.NoError(t, db.Create(&[]entities.PackageOption{
		{PackageRef: p, Category: zcl.OptionDefaultResponsePolicy, Code: zcl.DefaultResponseAlways, Label: "Always"},
		{PackageRef: p, Category: zcl.OptionDefaultResponsePolicy, Code: zcl.DefaultResponseNever, Label: "Never"},
		{PackageRef: p, Category: "other", Code: "x"},
	}).Error)

	return p
}

func setupQueries(t *testing.T) (QueryRepository, uint, uint) {
	t.Helper()
	db := setupTestDB(t)
	first := seedPackage(t, db, testIdentity("1"))
	second := seedPackage(t, db, testIdentity("2"))
	return NewQueryRepository(db), first, second
}

func TestClustersAreScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	q, first, second := setupQueries(t)

	clusters, err := q.Clusters(ctx, first)
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	assert.Equal(t, "On/Off", clusters[0].Name)
	assert.Nil(t, clusters[0].ManufacturerCode)
	assert.Equal(t, "Vendor On/Off", clusters[1].Name)
	assert.Equal(t, "Level Control", clusters[2].Name)
	for _, c := range clusters {
		assert.Equal(t, first, c.PackageRef)
	}

	other, err := q.Clusters(ctx, second)
	require.NoError(t, err)
	require.Len(t, other, 3)
	assert.NotEqual(t, clusters[0].ID, other[0].ID)

	byID, err := q.ClusterByID(ctx, clusters[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), byID.Code)

	_, err = q.ClusterByID(ctx, 424242)
	require.ErrorIs(t, err, ErrClusterNotFound)
}

func TestClustersByCodes(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	got, err := q.ClustersByCodes(ctx, first, []int64{8, 99, 6})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Level Control", got[0].Name)
	assert.Nil(t, got[1])
	assert.Equal(t, "On/Off", got[2].Name)

	none, err := q.ClustersByCodes(ctx, first, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCommandsAndArguments(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	cmds, err := q.Commands(ctx, first)
	require.NoError(t, err)
	require.Len(t, cmds, 4)

	var req *entities.Command
	for _, c := range cmds {
		if c.Name == "GetStateRequest" {
			req = c
		}
	}
	require.NotNil(t, req)
	require.NotNil(t, req.ResponseRef)

	resp, err := q.CommandByID(ctx, *req.ResponseRef)
	require.NoError(t, err)
	assert.Equal(t, "GetStateResponse", resp.Name)

	byCluster, err := q.CommandsByCluster(ctx, req.ClusterRef)
	require.NoError(t, err)
	require.Len(t, byCluster, 3)
	assert.Equal(t, "GetStateRequest", byCluster[0].Name)

	args, err := q.ArgumentsByCommand(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "first", args[0].Name)
	assert.Equal(t, "second", args[1].Name)

	all, err := q.CommandArguments(ctx, first)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = q.CommandByID(ctx, 424242)
	require.ErrorIs(t, err, ErrCommandNotFound)
}

func TestAttributesBySide(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	all, err := q.Attributes(ctx, first)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	client, err := q.AttributesBySide(ctx, first, zcl.SideClient)
	require.NoError(t, err)
	require.Len(t, client, 1)
	assert.Equal(t, "cluster revision", client[0].Name)

	server, err := q.AttributesBySide(ctx, first, zcl.SideServer)
	require.NoError(t, err)
	assert.Len(t, server, 3)
}

func TestTypeQueries(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	domains, err := q.Domains(ctx, first)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	domain, err := q.DomainByID(ctx, domains[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "General", domain.Name)

	enums, err := q.Enums(ctx, first)
	require.NoError(t, err)
	assert.Len(t, enums, 2)

	items, err := q.EnumItems(ctx, first)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Up", items[0].Name)

	bitmaps, err := q.Bitmaps(ctx, first)
	require.NoError(t, err)
	assert.Len(t, bitmaps, 1)
	fields, err := q.BitmapFields(ctx, first)
	require.NoError(t, err)
	assert.Len(t, fields, 1)

	structs, err := q.StructsWithItemCount(ctx, first)
	require.NoError(t, err)
	require.Len(t, structs, 2)
	assert.Equal(t, StructSummary{ID: structs[0].ID, Name: "Empty", ItemCount: 0}, structs[0])
	assert.Equal(t, "Pair", structs[1].Name)
	assert.Equal(t, int64(2), structs[1].ItemCount)

	atomics, err := q.Atomics(ctx, first)
	require.NoError(t, err)
	require.Len(t, atomics, 2)
	assert.Equal(t, "uint8", atomics[0].Name)

	dts, err := q.DeviceTypes(ctx, first)
	require.NoError(t, err)
	assert.Len(t, dts, 1)
	dtcs, err := q.DeviceTypeClusters(ctx, first)
	require.NoError(t, err)
	require.Len(t, dtcs, 1)
	assert.NotNil(t, dtcs[0].ClusterRef)
}

func TestManufacturerCodes(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	codes, err := q.ManufacturerCodes(ctx, first, "attributes")
	require.NoError(t, err)
	assert.Equal(t, []int64{0x1002}, codes)

	rows, err := q.ManufacturerCodeRows(ctx, first, "attributes")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "glow", rows[0].Name)
	assert.Equal(t, int64(0x1002), rows[0].ManufacturerCode)

	clusterCodes, err := q.ManufacturerCodes(ctx, first, "clusters")
	require.NoError(t, err)
	assert.Equal(t, []int64{0x1002}, clusterCodes)

	_, err = q.ManufacturerCodes(ctx, first, "packages; DROP TABLE packages")
	require.ErrorIs(t, err, ErrUnsupportedTable)
}

func TestOptionValues(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	opts, err := q.OptionValues(ctx, first, zcl.OptionDefaultResponsePolicy)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, zcl.DefaultResponseAlways, opts[0].Code)
	assert.Equal(t, zcl.DefaultResponseNever, opts[1].Code)

	none, err := q.OptionValues(ctx, first, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResponseStatsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	stats, err := q.ResponseStats(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, ResponseStats{Commands: 4, WithResponse: 1, UnmatchedRequests: 1}, stats)

	dups, err := q.DuplicateNames(ctx, first, "enums")
	require.NoError(t, err)
	assert.Equal(t, []DuplicateName{{Name: "Mode", Count: 2}}, dups)

	none, err := q.DuplicateNames(ctx, first, "bitmaps")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = q.DuplicateNames(ctx, first, "clusters")
	require.ErrorIs(t, err, ErrUnsupportedTable)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	q, first, _ := setupQueries(t)

	counts, err := q.Stats(ctx, first)
	require.NoError(t, err)
	require.Len(t, counts, len(packageScopedTables))
	assert.Equal(t, int64(3), rowsOf(counts, tableClusters))
	assert.Equal(t, int64(4), rowsOf(counts, tableCommands))
	assert.Equal(t, int64(3), rowsOf(counts, tablePackageOptions))
}
