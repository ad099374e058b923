package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/observability/metrics"
	"github.com/tphakala/zclstore/internal/zcl"
)

func TestLoadPackageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	first, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Equal(t, expectedCounts, first.Counts)
	assert.Equal(t, 1, first.Resolution.UnmatchedRequests)
	before := tableRows(t, db, first.PackageID)

	second, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.PackageID, second.PackageID)
	assert.Zero(t, second.Counts.Total())

	assert.Equal(t, before, tableRows(t, db, first.PackageID))
	assert.Equal(t, int64(1), countPackages(t, db))
}

func TestConcurrentIdenticalLoadsShareOnePackage(t *testing.T) {
	const callers = 16
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*Result, callers)
		errs    = make([]error, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = loader.LoadPackage(ctx, sampleDescription(), identity("1"))
		}()
	}
	close(start)
	wg.Wait()

	newCount := 0
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].PackageID, results[i].PackageID)
		if results[i].IsNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
	assert.Equal(t, int64(1), countPackages(t, db))
	assert.Equal(t, int64(expectedCounts.Clusters), tableRows(t, db, results[0].PackageID)["clusters"])
}

func TestDistinctIdentitiesLoadIndependently(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{MaxConcurrentLoads: 2})

	ids := []zcl.Identity{
		identity("1"),
		identity("2"),
		{Locator: "/defs/zcl.yaml", Version: "1", Category: zcl.CategoryMatterXML},
		{Locator: "/defs/other.yaml", Version: "1", Category: zcl.CategoryZclProperties},
	}

	var wg sync.WaitGroup
	results := make([]*Result, len(ids))
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = loader.LoadPackage(ctx, sampleDescription(), id)
		}()
	}
	wg.Wait()

	seen := make(map[uint]bool)
	for i := range ids {
		require.NoError(t, errs[i])
		assert.True(t, results[i].IsNew)
		assert.False(t, seen[results[i].PackageID], "package ids are never shared")
		seen[results[i].PackageID] = true
		assert.Equal(t, int64(expectedCounts.Commands), tableRows(t, db, results[i].PackageID)["commands"])
	}
	assert.Equal(t, int64(len(ids)), countPackages(t, db))
}

func TestFailedLoadLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	bad := sampleDescription()
	bad.Clusters[1].Domain = "Closures"

	_, err := loader.LoadPackage(ctx, bad, identity("1"))
	var ie *IngestionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "clusters[1](Vendor On/Off)", ie.Path)
	assert.Equal(t, identity("1"), ie.Identity)

	assert.Zero(t, countPackages(t, db))
	var clusters int64
	require.NoError(t, db.Table("clusters").Count(&clusters).Error)
	assert.Zero(t, clusters)

	// a retry behaves like a first attempt
	res, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
}

func TestLateFailureRollsBackEveryTable(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	// Options are the last rows the normalizer writes.
	var failOptions atomic.Bool
	failOptions.Store(true)
	errDiskFull := errors.NewStd("disk full")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_options", func(tx *gorm.DB) {
		if failOptions.Load() && tx.Statement.Table == "package_options" {
			_ = tx.AddError(errDiskFull)
		}
	}))

	_, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.ErrorIs(t, err, errDiskFull)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, errors.PriorityHigh, ee.GetPriority())

	assert.Zero(t, countPackages(t, db))
	for table := range tableRows(t, db, 0) {
		var n int64
		require.NoError(t, db.Table(table).Count(&n).Error)
		assert.Zero(t, n, table)
	}

	failOptions.Store(false)
	res, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.Equal(t, expectedCounts, res.Counts)
}

func TestInvalidInputIsRejectedBeforeWriting(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	bad := sampleDescription()
	bad.Clusters[0].Attributes[1].Side = "both"

	_, err := loader.LoadPackage(ctx, bad, identity("1"))
	var ie *IngestionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "clusters[0](On/Off).attributes[1](cluster revision)", ie.Path)

	_, err = loader.LoadPackage(ctx, sampleDescription(), zcl.Identity{Version: "1"})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "package", ie.Path)

	_, err = loader.LoadPackage(ctx, nil, identity("1"))
	require.ErrorAs(t, err, &ie)

	assert.Zero(t, countPackages(t, db))
}

func TestSequentialAndConcurrentLoadsWriteTheSameRows(t *testing.T) {
	ctx := context.Background()
	sequential, seqDB := newTestLoader(t, Options{})
	concurrent, conDB := newTestLoader(t, Options{MaxConcurrentLoads: 3})

	var ids []zcl.Identity
	for v := range 6 {
		ids = append(ids, identity(fmt.Sprintf("v%d", v)))
	}

	seqRows := make(map[string]map[string]int64)
	for _, id := range ids {
		res, err := sequential.LoadPackage(ctx, sampleDescription(), id)
		require.NoError(t, err)
		seqRows[id.Version] = tableRows(t, seqDB, res.PackageID)
	}

	// two callers per identity
	const perIdentity = 2
	var wg sync.WaitGroup
	results := make([]*Result, len(ids)*perIdentity)
	errs := make([]error, len(ids)*perIdentity)
	for i, id := range ids {
		for j := range perIdentity {
			wg.Add(1)
			go func() {
				defer wg.Done()
				k := i*perIdentity + j
				results[k], errs[k] = concurrent.LoadPackage(ctx, sampleDescription(), id)
			}()
		}
	}
	wg.Wait()

	for k, err := range errs {
		require.NoError(t, err)
		id := ids[k/perIdentity]
		assert.Equal(t, seqRows[id.Version], tableRows(t, conDB, results[k].PackageID), "version %s", id.Version)
	}
	assert.Equal(t, countPackages(t, seqDB), countPackages(t, conDB))
}

func TestWaiterCancellationDoesNotAbortSharedLoad(t *testing.T) {
	loader, db := newTestLoader(t, Options{MaxConcurrentLoads: 1})

	// hold the only load slot so the flight parks in Acquire
	require.NoError(t, loader.slots.Acquire(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	loader.slots.Release(1)

	repo := repository.NewPackageRepository(db)
	require.Eventually(t, func() bool {
		_, err := repo.GetByIdentity(context.Background(), identity("1"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	res, err := loader.LoadPackage(context.Background(), sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.False(t, res.IsNew)
}

func TestUnload(t *testing.T) {
	ctx := context.Background()
	loader, db := newTestLoader(t, Options{})

	res, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)

	require.NoError(t, loader.Unload(ctx, res.PackageID))
	for table, rows := range tableRows(t, db, res.PackageID) {
		assert.Zero(t, rows, "table %s", table)
	}
	require.ErrorIs(t, loader.Unload(ctx, res.PackageID), repository.ErrPackageNotFound)

	again, err := loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	assert.True(t, again.IsNew)
}

func TestLoadRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m, err := metrics.NewIngestMetrics(registry)
	require.NoError(t, err)

	loader, _ := newTestLoader(t, Options{Metrics: m})

	_, err = loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	_, err = loader.LoadPackage(ctx, sampleDescription(), identity("1"))
	require.NoError(t, err)
	_, err = loader.LoadPackage(ctx, nil, identity("2"))
	require.Error(t, err)

	// loaded, existing and failed series
	count, err := testutil.GatherAndCount(registry, "zclstore_ingest_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(registry, "zclstore_ingest_rows_written_total")
	require.NoError(t, err)
	assert.Equal(t, len(expectedCounts.ByTable()), count)

	count, err = testutil.GatherAndCount(registry, "zclstore_ingest_unmatched_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOptionsFromSettings(t *testing.T) {
	opts := OptionsFromSettings(&conf.IngestSettings{
		MaxConcurrentLoads: 8,
		BatchSize:          250,
		LoadTimeout:        time.Minute,
		Retry:              conf.RetrySettings{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Second},
	})
	assert.Equal(t, 8, opts.MaxConcurrentLoads)
	assert.Equal(t, 250, opts.BatchSize)
	assert.Equal(t, uint(3), opts.MaxAttempts)

	var empty Options
	empty.Logger = nil
	empty.applyDefaults()
	assert.Equal(t, DefaultMaxConcurrentLoads, empty.MaxConcurrentLoads)
	assert.Equal(t, uint(DefaultMaxAttempts), empty.MaxAttempts)
	assert.NotNil(t, empty.Logger)
}

func TestRetryClassification(t *testing.T) {
	assert.True(t, retryable(repository.ErrDuplicateRegistration))
	assert.Equal(t, metrics.RetryDuplicateRegistration, retryReason(fmt.Errorf("wrapped: %w", repository.ErrDuplicateRegistration)))
	assert.False(t, retryable(&zcl.ParseInputError{Path: "package"}))
	assert.Equal(t, metrics.RetryTransient, retryReason(assert.AnError))
}
