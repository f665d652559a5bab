// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Expense lifecycle
	IncExpenseCreated()
	IncExpenseUpdated()
	IncExpenseDeleted()
	IncValidationFailure()

	// Authentication
	IncAuthCacheHit()
	IncAuthCacheMiss()

	// HTTP
	ObserveRequestDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
