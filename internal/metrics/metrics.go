// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Entity and operation labels used by IncMutation.
const (
	EntityTask = "task"
	EntityUser = "user"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Task cache metrics
	IncTaskCacheHit()
	IncTaskCacheMiss()

	// Committed writes, labelled by entity and operation
	IncMutation(entity, op string)

	// Task lifecycle events; status is "success" or "dropped"
	IncEventPublished(status string)

	// HTTP request metrics, labelled by chi route pattern
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
