// Package metrics provides ingestion metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for package loading
type IngestMetrics struct {
	registry *prometheus.Registry

	loadsTotal        *prometheus.CounterVec
	loadDuration      *prometheus.HistogramVec
	rowsWrittenTotal  *prometheus.CounterVec
	unmatchedRequests *prometheus.CounterVec
	retriesTotal      *prometheus.CounterVec
	sharedWaitsTotal  prometheus.Counter
	inflightLoads     prometheus.Gauge

	collectors []prometheus.Collector
}

// NewIngestMetrics creates and registers new ingestion metrics
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IngestMetrics) initMetrics() {
	m.loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zclstore_ingest_loads_total",
			Help: "Total number of package load calls",
		},
		[]string{"category", "outcome"}, // outcome: loaded, existing, shared, failed
	)

	m.loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zclstore_ingest_load_duration_seconds",
			Help:    "Time taken by package load calls",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~40s
		},
		[]string{"outcome"},
	)

	m.rowsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zclstore_ingest_rows_written_total",
			Help: "Total number of rows written by committed loads",
		},
		[]string{"table"},
	)

	m.unmatchedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zclstore_ingest_unmatched_requests_total",
			Help: "Request commands left without a response after resolution",
		},
		[]string{"category"},
	)

	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zclstore_ingest_retries_total",
			Help: "Total number of retried load transactions",
		},
		[]string{"reason"},
	)

	m.sharedWaitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zclstore_ingest_shared_waits_total",
			Help: "Callers that joined a load already in flight",
		},
	)

	m.inflightLoads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zclstore_ingest_inflight_loads",
			Help: "Loads currently holding a load slot",
		},
	)

	m.collectors = []prometheus.Collector{
		m.loadsTotal,
		m.loadDuration,
		m.rowsWrittenTotal,
		m.unmatchedRequests,
		m.retriesTotal,
		m.sharedWaitsTotal,
		m.inflightLoads,
	}
}

// Describe implements the Collector interface
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordLoad records the outcome and duration of one load call
func (m *IngestMetrics) RecordLoad(category, outcome string, seconds float64) {
	m.loadsTotal.WithLabelValues(category, outcome).Inc()
	m.loadDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordRows adds committed row counts keyed by table name
func (m *IngestMetrics) RecordRows(rows map[string]int) {
	for table, n := range rows {
		if n > 0 {
			m.rowsWrittenTotal.WithLabelValues(table).Add(float64(n))
		}
	}
}

// RecordUnmatchedRequests records requests left without a response
func (m *IngestMetrics) RecordUnmatchedRequests(category string, n int) {
	if n > 0 {
		m.unmatchedRequests.WithLabelValues(category).Add(float64(n))
	}
}

// RecordRetry records a retried load transaction
func (m *IngestMetrics) RecordRetry(reason string) {
	m.retriesTotal.WithLabelValues(reason).Inc()
}

// RecordSharedWait records a caller joining an in-flight load
func (m *IngestMetrics) RecordSharedWait() {
	m.sharedWaitsTotal.Inc()
}

// LoadStarted increments the in-flight gauge
func (m *IngestMetrics) LoadStarted() {
	m.inflightLoads.Inc()
}

// LoadFinished decrements the in-flight gauge
func (m *IngestMetrics) LoadFinished() {
	m.inflightLoads.Dec()
}
