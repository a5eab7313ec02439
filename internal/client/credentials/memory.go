package credentials

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is a process-local Store. It backs tests and the console's
// --ephemeral mode.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Snapshot returns a copy of every stored pair.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.values)
}

// Update holds the lock for the whole batch and restores the previous
// contents when fn fails.
func (m *MemoryStore) Update(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := maps.Clone(m.values)
	if err := fn(ctx, memoryView(m.values)); err != nil {
		m.values = before
		return err
	}
	return nil
}

// memoryView is the unlocked Store handed to Update callbacks.
type memoryView map[string]string

func (v memoryView) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := v[key]
	return value, ok, nil
}

func (v memoryView) Set(_ context.Context, key, value string) error {
	v[key] = value
	return nil
}

func (v memoryView) Remove(_ context.Context, key string) error {
	delete(v, key)
	return nil
}
