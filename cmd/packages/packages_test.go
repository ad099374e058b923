package packages

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/definition"
	"github.com/tphakala/zclstore/internal/ingest"
	"github.com/tphakala/zclstore/internal/logger"
)

type env struct {
	packages  repository.PackageRepository
	queries   repository.QueryRepository
	packageID uint
}

func seed(t *testing.T) *env {
	t.Helper()
	m, err := datastore.NewSQLiteManager(datastore.Config{Path: filepath.Join(t.TempDir(), "packages.db")})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })

	db := m.DB()
	packages := repository.NewPackageRepository(db)
	loader := ingest.NewLoader(db, packages, ingest.Options{Logger: logger.Discard()})
	desc, id, err := definition.LoadPackage(filepath.Join("..", "..", "internal", "definition", "testdata", "zcl.yaml"))
	require.NoError(t, err)
	res, err := loader.LoadPackage(t.Context(), desc, id)
	require.NoError(t, err)

	return &env{packages: packages, queries: repository.NewQueryRepository(db), packageID: res.PackageID}
}

func TestListFiltersByCategory(t *testing.T) {
	e := seed(t)

	var buf bytes.Buffer
	require.NoError(t, List(t.Context(), e.packages, "", output.FormatTable, &buf))
	assert.Contains(t, buf.String(), "zclProperties")

	buf.Reset()
	require.NoError(t, List(t.Context(), e.packages, "matterXml", output.FormatJSON, &buf))
	assert.Equal(t, "[]\n", buf.String())

	require.Error(t, List(t.Context(), e.packages, "bogus", output.FormatJSON, &buf))
}

func TestShowPrintsCounts(t *testing.T) {
	e := seed(t)

	var buf bytes.Buffer
	require.NoError(t, Show(t.Context(), e.packages, e.queries, e.packageID, output.FormatJSON, &buf))

	var detail PackageDetail
	require.NoError(t, json.Unmarshal(buf.Bytes(), &detail))
	require.NotNil(t, detail.Package)
	assert.Equal(t, e.packageID, detail.Package.ID)
	assert.Equal(t, int64(7), detail.Responses.Commands)
	assert.Equal(t, int64(2), detail.Responses.WithResponse)

	counts := map[string]int64{}
	for _, tc := range detail.Tables {
		counts[tc.Table] = tc.Rows
	}
	assert.Equal(t, int64(3), counts["clusters"])

	buf.Reset()
	require.NoError(t, Show(t.Context(), e.packages, e.queries, e.packageID, output.FormatTable, &buf))
	assert.Contains(t, buf.String(), "Commands with response: 2 of 7")
	assert.Contains(t, buf.String(), "Total")
}

func TestShowMissingPackage(t *testing.T) {
	e := seed(t)
	var buf bytes.Buffer

	err := Show(t.Context(), e.packages, e.queries, e.packageID+100, output.FormatTable, &buf)
	require.ErrorIs(t, err, repository.ErrPackageNotFound)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := ParseID(bad)
		require.Error(t, err, bad)
	}
}
