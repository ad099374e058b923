// Package metrics provides constants used across metric definitions.
package metrics

// Outcome label values for load metrics.
const (
	// OutcomeLoaded is a load that registered and wrote a new package.
	OutcomeLoaded = "loaded"
	// OutcomeExisting is a load that found the package already committed.
	OutcomeExisting = "existing"
	// OutcomeShared is a caller that waited on another caller's load.
	OutcomeShared = "shared"
	// OutcomeFailed is a load that rolled back.
	OutcomeFailed = "failed"
)

// Retry reason label values.
const (
	// RetryDuplicateRegistration is a lost registration race.
	RetryDuplicateRegistration = "duplicate_registration"
	// RetryTransient is a lock timeout, deadlock or dropped connection.
	RetryTransient = "transient"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)
