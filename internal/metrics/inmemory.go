package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TaskCacheHits   uint64
	TaskCacheMisses uint64
	Mutations       map[string]uint64 // keyed "entity.op"
	EventsPublished uint64
	EventsDropped   uint64
	Requests        uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	taskCacheHits   uint64
	taskCacheMisses uint64
	eventsPublished uint64
	eventsDropped   uint64
	requests        uint64

	mu        sync.Mutex
	mutations map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{mutations: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	mutations := make(map[string]uint64, len(m.mutations))
	for k, v := range m.mutations {
		mutations[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		TaskCacheHits:   atomic.LoadUint64(&m.taskCacheHits),
		TaskCacheMisses: atomic.LoadUint64(&m.taskCacheMisses),
		Mutations:       mutations,
		EventsPublished: atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:   atomic.LoadUint64(&m.eventsDropped),
		Requests:        atomic.LoadUint64(&m.requests),
	}
}

// IncTaskCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncTaskCacheHit() {
	atomic.AddUint64(&m.taskCacheHits, 1)
}

// IncTaskCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncTaskCacheMiss() {
	atomic.AddUint64(&m.taskCacheMisses, 1)
}

// IncMutation counts a committed write.
func (m *InMemoryRecorder) IncMutation(entity, op string) {
	m.mu.Lock()
	m.mutations[entity+"."+op]++
	m.mu.Unlock()
}

// IncEventPublished counts a publish attempt by outcome.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}

// ObserveRequest counts a served request.
func (m *InMemoryRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
}
