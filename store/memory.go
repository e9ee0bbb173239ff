package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Save(_ context.Context, record *Record) error {
	copied := *record
	m.mu.Lock()
	m.records[record.ID] = &copied
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *Memory) List(_ context.Context, filter Filter) ([]*Record, error) {
	m.mu.RLock()
	out := make([]*Record, 0, len(m.records))
	for _, record := range m.records {
		if filter.match(record) {
			copied := *record
			out = append(out, &copied)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
