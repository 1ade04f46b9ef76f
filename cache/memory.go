package cache

import (
	"sync"
	"time"
)

// Memory is an in-process Store. Entries never expire on their own: a stale entry
// is evicted by the Get that finds it stale, so entries nobody reads stay resident.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	closed  bool
}

type entry struct {
	storedAt time.Time
	payload  any
}

// Option customizes a Memory store.
type Option func(*Memory)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory builds an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{entries: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Get returns the value stored under key if it is at most ttl old. An older entry
// is removed and reported as a miss.
func (m *Memory) Get(key string, ttl time.Duration) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) > ttl {
		delete(m.entries, key)
		return nil, false
	}
	return e.payload, true
}

// Set stores value under key stamped with the current time, replacing any prior entry.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.entries[key] = entry{storedAt: m.now(), payload: value}
}

func (m *Memory) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
}

// Len reports the number of resident entries, stale ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close drops every entry; later Sets are ignored.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = make(map[string]entry)
	return nil
}
