package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncTaskCacheHit is a no-op.
func (n *NoopRecorder) IncTaskCacheHit() {}

// IncTaskCacheMiss is a no-op.
func (n *NoopRecorder) IncTaskCacheMiss() {}

// IncMutation is a no-op.
func (n *NoopRecorder) IncMutation(entity, op string) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// ObserveRequest is a no-op.
func (n *NoopRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {}
