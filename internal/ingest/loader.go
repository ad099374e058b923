// Package ingest loads package descriptions into the store.
//
// A Loader registers the package identity, normalizes the description into
// package scoped rows and resolves cross references, all inside one
// transaction. Identical identities loading at the same time share one
// load; distinct identities load in parallel up to a configured limit.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/observability/metrics"
	"github.com/tphakala/zclstore/internal/zcl"
)

// Defaults applied to zero Options fields.
const (
	DefaultMaxConcurrentLoads = 4
	DefaultLoadTimeout        = 5 * time.Minute
	DefaultMaxAttempts        = 5
	DefaultInitialInterval    = 50 * time.Millisecond
	DefaultMaxInterval        = 2 * time.Second
)

// Options configures a Loader.
type Options struct {
	MaxConcurrentLoads int
	BatchSize          int
	LoadTimeout        time.Duration
	MaxAttempts        uint
	InitialInterval    time.Duration
	MaxInterval        time.Duration

	Metrics *metrics.IngestMetrics // optional
	Logger  logger.Logger          // optional
}

// OptionsFromSettings maps the ingest section of the configuration.
func OptionsFromSettings(s *conf.IngestSettings) Options {
	return Options{
		MaxConcurrentLoads: s.MaxConcurrentLoads,
		BatchSize:          s.BatchSize,
		LoadTimeout:        s.LoadTimeout,
		MaxAttempts:        s.Retry.MaxAttempts,
		InitialInterval:    s.Retry.InitialInterval,
		MaxInterval:        s.Retry.MaxInterval,
	}
}

func (o *Options) applyDefaults() {
	if o.MaxConcurrentLoads <= 0 {
		o.MaxConcurrentLoads = DefaultMaxConcurrentLoads
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = DefaultLoadTimeout
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = DefaultInitialInterval
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = DefaultMaxInterval
	}
	if o.Logger == nil {
		o.Logger = logger.Global().Module(logger.ModuleIngest)
	}
}

// Result describes one LoadPackage call. IsNew is true only for the caller
// whose load wrote the package; Counts and Resolution are zero otherwise.
type Result struct {
	PackageID  uint          `json:"packageId"`
	IsNew      bool          `json:"isNew"`
	Counts     Counts        `json:"counts"`
	Resolution Resolution    `json:"resolution"`
	Duration   time.Duration `json:"duration"`
}

// Loader is the only writer of package data.
type Loader struct {
	db         *gorm.DB
	packages   repository.PackageRepository
	normalizer *Normalizer
	resolver   *Resolver
	group      singleflight.Group
	slots      *semaphore.Weighted
	opts       Options
	log        logger.Logger
}

// NewLoader creates a Loader writing through db. packages may be a cached
// repository; loads always register through an uncached transaction view.
func NewLoader(db *gorm.DB, packages repository.PackageRepository, opts Options) *Loader {
	opts.applyDefaults()
	return &Loader{
		db:         db,
		packages:   packages,
		normalizer: NewNormalizer(opts.BatchSize, opts.Logger),
		resolver:   NewResolver(opts.Logger),
		slots:      semaphore.NewWeighted(int64(opts.MaxConcurrentLoads)),
		opts:       opts,
		log:        opts.Logger,
	}
}

// LoadPackage stores desc under id and returns its package id. Loading an
// identity that is already committed performs no writes. Concurrent calls
// with the same identity share one load and receive the same package id.
//
// The shared load keeps running when the caller that started it goes away;
// it is bounded by the load timeout instead. Each caller stops waiting when
// its own ctx is done.
func (l *Loader) LoadPackage(ctx context.Context, desc *zcl.PackageDescription, id zcl.Identity) (*Result, error) {
	start := time.Now()

	if err := id.Validate(); err != nil {
		return nil, l.fail(id, start, err)
	}
	if desc == nil {
		return nil, l.fail(id, start, &zcl.ParseInputError{Path: "package", Reason: "description is missing"})
	}
	if err := desc.Validate(); err != nil {
		return nil, l.fail(id, start, err)
	}

	if pkg, err := l.packages.GetByIdentity(ctx, id); err == nil {
		l.recordLoad(id.Category, metrics.OutcomeExisting, start)
		return &Result{PackageID: pkg.ID, Duration: time.Since(start)}, nil
	} else if !errors.Is(err, repository.ErrPackageNotFound) {
		return nil, l.fail(id, start, err)
	}

	var leader atomic.Bool
	ch := l.group.DoChan(id.Key(), func() (any, error) {
		leader.Store(true)
		return l.load(ctx, desc, id)
	})

	select {
	case <-ctx.Done():
		return nil, l.fail(id, start, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, l.fail(id, start, res.Err)
		}
		shared, ok := res.Val.(*Result)
		if !ok {
			return nil, l.fail(id, start, errors.Newf("unexpected load result %T", res.Val).Build())
		}

		out := *shared
		out.Duration = time.Since(start)
		switch {
		case !leader.Load():
			out.IsNew = false
			out.Counts = Counts{}
			out.Resolution = Resolution{}
			l.recordSharedWait()
			l.recordLoad(id.Category, metrics.OutcomeShared, start)
		case out.IsNew:
			l.recordLoad(id.Category, metrics.OutcomeLoaded, start)
		default:
			l.recordLoad(id.Category, metrics.OutcomeExisting, start)
		}
		return &out, nil
	}
}

// load runs once per identity at a time, on behalf of every waiting caller.
func (l *Loader) load(parent context.Context, desc *zcl.PackageDescription, id zcl.Identity) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), l.opts.LoadTimeout)
	defer cancel()
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())

	log := l.log.WithContext(ctx).With(
		logger.String("locator", id.Locator),
		logger.String("version", id.Version),
		logger.String("category", id.Category))

	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.slots.Release(1)

	if l.opts.Metrics != nil {
		l.opts.Metrics.LoadStarted()
		defer l.opts.Metrics.LoadFinished()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.opts.InitialInterval
	bo.MaxInterval = l.opts.MaxInterval

	res, err := backoff.Retry(ctx, func() (*Result, error) {
		res, err := l.loadOnce(ctx, desc, id)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(l.opts.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			reason := retryReason(err)
			if l.opts.Metrics != nil {
				l.opts.Metrics.RecordRetry(reason)
			}
			log.Warn("retrying load",
				logger.String("reason", reason),
				logger.Duration("wait", wait),
				logger.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}

	if res.IsNew {
		if l.opts.Metrics != nil {
			l.opts.Metrics.RecordRows(res.Counts.ByTable())
			l.opts.Metrics.RecordUnmatchedRequests(id.Category, res.Resolution.UnmatchedRequests)
		}
		log.Info("package loaded",
			logger.Uint64("package_id", uint64(res.PackageID)),
			logger.Int("rows", res.Counts.Total()),
			logger.Int("linked_responses", res.Resolution.Linked),
			logger.Int("unmatched_requests", res.Resolution.UnmatchedRequests))
	} else {
		log.Debug("package already registered", logger.Uint64("package_id", uint64(res.PackageID)))
	}
	return res, nil
}

// loadOnce is one attempt: register, normalize and resolve in a single
// transaction. Any error rolls every row back, the package row included.
func (l *Loader) loadOnce(ctx context.Context, desc *zcl.PackageDescription, id zcl.Identity) (*Result, error) {
	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkg, isNew, err := l.packages.WithTx(tx).RegisterOrGet(ctx, id)
		if err != nil {
			return err
		}
		res.PackageID = pkg.ID
		res.IsNew = isNew
		if !isNew {
			return nil
		}

		if res.Counts, err = l.normalizer.Normalize(ctx, tx, pkg.ID, desc); err != nil {
			return err
		}
		if res.Resolution, err = l.resolver.Resolve(ctx, tx, pkg.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		var pie *zcl.ParseInputError
		if errors.As(err, &pie) || errors.Is(err, repository.ErrDuplicateRegistration) {
			return nil, err
		}
		return nil, datastore.ClassifyError("load_package", err)
	}
	return &res, nil
}

func retryable(err error) bool {
	return errors.Is(err, repository.ErrDuplicateRegistration) || datastore.IsTransient(err)
}

func retryReason(err error) string {
	if errors.Is(err, repository.ErrDuplicateRegistration) {
		return metrics.RetryDuplicateRegistration
	}
	return metrics.RetryTransient
}

// Unload deletes a committed package and every row it owns.
func (l *Loader) Unload(ctx context.Context, packageID uint) error {
	if err := l.packages.Delete(ctx, packageID); err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return err
		}
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("operation", "unload_package").
			Context("package_id", packageID).
			Build()
	}
	l.log.WithContext(ctx).Info("package unloaded", logger.Uint64("package_id", uint64(packageID)))
	return nil
}

// fail records a failed load and shapes err for the caller: input problems
// become *IngestionError, everything else is wrapped with its category.
func (l *Loader) fail(id zcl.Identity, start time.Time, err error) error {
	l.recordLoad(id.Category, metrics.OutcomeFailed, start)

	var pie *zcl.ParseInputError
	if errors.As(err, &pie) {
		l.log.Warn("package rejected",
			logger.String("locator", id.Locator),
			logger.String("path", pie.Path),
			logger.Error(err))
		return &IngestionError{Identity: id, Path: pie.Path, Err: err}
	}

	category, priority := errors.CategoryDatabase, errors.PriorityHigh
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		category, priority = errors.CategoryTimeout, errors.PriorityMedium
	case errors.Is(err, context.Canceled):
		category, priority = errors.CategoryCancellation, errors.PriorityLow
	}

	l.log.Error("package load failed",
		logger.String("locator", id.Locator),
		logger.String("version", id.Version),
		logger.Error(err))
	return errors.New(err).
		Component("ingest").
		Category(category).
		Priority(priority).
		PackageContext(id.Locator, id.Version, id.Category).
		Timing("load_package", time.Since(start)).
		Build()
}

func (l *Loader) recordLoad(category, outcome string, start time.Time) {
	if l.opts.Metrics != nil {
		l.opts.Metrics.RecordLoad(category, outcome, time.Since(start).Seconds())
	}
}

func (l *Loader) recordSharedWait() {
	if l.opts.Metrics != nil {
		l.opts.Metrics.RecordSharedWait()
	}
}
