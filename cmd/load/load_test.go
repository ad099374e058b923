package load

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
	"github.com/tphakala/zclstore/internal/ingest"
	"github.com/tphakala/zclstore/internal/logger"
)

var (
	goodFile = filepath.Join("..", "..", "internal", "definition", "testdata", "zcl.yaml")
	badFile  = filepath.Join("..", "..", "internal", "definition", "testdata", "bad_side.yaml")
)

func newLoader(t *testing.T) *ingest.Loader {
	t.Helper()
	m, err := datastore.NewSQLiteManager(datastore.Config{Path: filepath.Join(t.TempDir(), "load.db")})
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })

	db := m.DB()
	return ingest.NewLoader(db, repository.NewPackageRepository(db), ingest.Options{Logger: logger.Discard()})
}

func TestRunLoadsSameFileOnce(t *testing.T) {
	loader := newLoader(t)
	var buf bytes.Buffer

	err := Run(t.Context(), loader, logger.Discard(), []string{goodFile, goodFile}, 2, output.FormatJSON, &buf)
	require.NoError(t, err)

	var results []FileResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 2)

	newCount := 0
	for _, r := range results {
		require.NotNil(t, r.Result)
		assert.Empty(t, r.Error)
		assert.Equal(t, results[0].Result.PackageID, r.Result.PackageID)
		if r.Result.IsNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
	assert.Equal(t, "1.0", results[0].Identity.Version)
}

func TestRunReportsFailedFiles(t *testing.T) {
	loader := newLoader(t)
	var buf bytes.Buffer

	err := Run(t.Context(), loader, logger.Discard(), []string{goodFile, badFile}, 0, output.FormatTable, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	out := buf.String()
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "failed:")
	assert.Contains(t, out, "side")
}
