package cache

import (
	"context"
	"sync"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
)

// Memory is a process-local TTL cache of property snapshots.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.RWMutex
	entries map[property.ID]memoryEntry
}

type memoryEntry struct {
	value     *property.Property
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{TTL: ttl, entries: make(map[property.ID]memoryEntry)}
}

func (m *Memory) Get(ctx context.Context, id property.ID) (*property.Property, bool) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.Evict(ctx, id)
		return nil, false
	}
	return e.value.Clone(), true
}

func (m *Memory) Set(ctx context.Context, p *property.Property) {
	if p == nil {
		return
	}
	e := memoryEntry{value: p.Clone()}
	if m.TTL > 0 {
		e.expiresAt = m.now().Add(m.TTL)
	}
	m.mu.Lock()
	m.entries[p.ID] = e
	m.mu.Unlock()
}

func (m *Memory) Evict(ctx context.Context, id property.ID) {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

var _ policies.PropertyCache = (*Memory)(nil)
