package store

import (
	"context"
	"sync"
)

// Compile-time interface verification.
var _ KV = (*MemoryKV)(nil)

// MemoryKV is an in-process KV. Contents are lost on restart.
type MemoryKV struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order  []string
	values map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{collections: make(map[string]*memCollection)}
}

func (m *MemoryKV) Put(_ context.Context, collection, id string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		c = &memCollection{values: make(map[string][]byte)}
		m.collections[collection] = c
	}
	if _, exists := c.values[id]; !exists {
		c.order = append(c.order, id)
	}
	c.values[id] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Get(_ context.Context, collection, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := c.values[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) List(_ context.Context, collection string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, nil
	}
	entries := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		entries = append(entries, Entry{ID: id, Value: append([]byte(nil), c.values[id]...)})
	}
	return entries, nil
}

func (m *MemoryKV) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	if _, exists := c.values[id]; !exists {
		return ErrNotFound
	}
	delete(c.values, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
