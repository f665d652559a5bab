package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ExpensesCreated        uint64
	ExpensesUpdated        uint64
	ExpensesDeleted        uint64
	ValidationFailures     uint64
	AuthCacheHits          uint64
	AuthCacheMisses        uint64
	RequestDurationCount   uint64
	RequestDurationTotalNs int64
}

// InMemoryRecorder keeps counters in process memory.
// It backs the /metrics endpoint and is safe for concurrent use.
type InMemoryRecorder struct {
	expensesCreated    atomic.Uint64
	expensesUpdated    atomic.Uint64
	expensesDeleted    atomic.Uint64
	validationFailures atomic.Uint64
	authCacheHits      atomic.Uint64
	authCacheMisses    atomic.Uint64
	requestCount       atomic.Uint64
	requestTotalNs     atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ExpensesCreated:        m.expensesCreated.Load(),
		ExpensesUpdated:        m.expensesUpdated.Load(),
		ExpensesDeleted:        m.expensesDeleted.Load(),
		ValidationFailures:     m.validationFailures.Load(),
		AuthCacheHits:          m.authCacheHits.Load(),
		AuthCacheMisses:        m.authCacheMisses.Load(),
		RequestDurationCount:   m.requestCount.Load(),
		RequestDurationTotalNs: m.requestTotalNs.Load(),
	}
}

func (m *InMemoryRecorder) IncExpenseCreated() { m.expensesCreated.Add(1) }
func (m *InMemoryRecorder) IncExpenseUpdated() { m.expensesUpdated.Add(1) }
func (m *InMemoryRecorder) IncExpenseDeleted() { m.expensesDeleted.Add(1) }
func (m *InMemoryRecorder) IncValidationFailure() { m.validationFailures.Add(1) }
func (m *InMemoryRecorder) IncAuthCacheHit() { m.authCacheHits.Add(1) }
func (m *InMemoryRecorder) IncAuthCacheMiss() { m.authCacheMisses.Add(1) }

// ObserveRequestDuration records one handled request.
func (m *InMemoryRecorder) ObserveRequestDuration(duration time.Duration) {
	m.requestCount.Add(1)
	m.requestTotalNs.Add(duration.Nanoseconds())
}
