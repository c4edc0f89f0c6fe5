package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of writes between full expiry sweeps.
const sweepEvery = 100

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expired entries are dropped on read and
// swept periodically on write.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	writes  int
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !m.now().After(e.expiresAt) {
		return e.data, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another writer may have refreshed it
	if cur, exists := m.entries[key]; exists {
		if !m.now().After(cur.expiresAt) {
			return cur.data, true
		}
		delete(m.entries, key)
	}
	return nil, false
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.writes++
	if m.writes%sweepEvery == 0 {
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
	m.entries[key] = entry{data: value, expiresAt: now.Add(m.ttl)}
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
