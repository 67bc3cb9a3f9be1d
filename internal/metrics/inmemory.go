package metrics

import "sync"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DocumentsInserted     map[string]uint64
	DocumentsUpdated      map[string]uint64
	DocumentsRemoved      map[string]uint64
	ChangeEventsPublished map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu        sync.Mutex
	inserted  map[string]uint64
	updated   map[string]uint64
	removed   map[string]uint64
	published map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		inserted:  make(map[string]uint64),
		updated:   make(map[string]uint64),
		removed:   make(map[string]uint64),
		published: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		DocumentsInserted:     copyCounters(m.inserted),
		DocumentsUpdated:      copyCounters(m.updated),
		DocumentsRemoved:      copyCounters(m.removed),
		ChangeEventsPublished: copyCounters(m.published),
	}
}

func (m *InMemoryRecorder) IncDocumentInserted(collection string) {
	m.inc(m.inserted, collection)
}

func (m *InMemoryRecorder) IncDocumentUpdated(collection string) {
	m.inc(m.updated, collection)
}

func (m *InMemoryRecorder) IncDocumentRemoved(collection string) {
	m.inc(m.removed, collection)
}

func (m *InMemoryRecorder) IncChangeEventPublished(status string) {
	m.inc(m.published, status)
}

func (m *InMemoryRecorder) inc(counters map[string]uint64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counters[key]++
}

func copyCounters(counters map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(counters))
	for k, v := range counters {
		out[k] = v
	}
	return out
}
