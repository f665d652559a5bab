package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncExpenseCreated() {}
func (n *NoopRecorder) IncExpenseUpdated() {}
func (n *NoopRecorder) IncExpenseDeleted() {}
func (n *NoopRecorder) IncValidationFailure() {}
func (n *NoopRecorder) IncAuthCacheHit() {}
func (n *NoopRecorder) IncAuthCacheMiss() {}
func (n *NoopRecorder) ObserveRequestDuration(_ time.Duration) {}
