package sessioncache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Cache. Entries are stored serialized so callers
// never share state with the cache.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemory returns a Memory cache. A zero ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, id string) (*Entry, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok && m.expired(e) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(e.data)
}

func (m *Memory) Put(_ context.Context, e *Entry) error {
	data, err := encode(e)
	if err != nil {
		return err
	}

	me := memoryEntry{data: data}
	if m.ttl > 0 {
		me.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[e.SessionID] = me
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !m.expired(e) {
			n++
		}
	}
	return n
}

func (m *Memory) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}
