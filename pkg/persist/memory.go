package persist

import (
	"context"
	"sync"
)

// MemorySink keeps encoded snapshots in process memory. Tests and the CLI
// use it when no backend is configured.
type MemorySink struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{data: map[string][]byte{}}
}

func (m *MemorySink) Save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = data
	return nil
}

func (m *MemorySink) Load(ctx context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	data, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, decode(data, v)
}

func (m *MemorySink) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Keys lists the stored keys.
func (m *MemorySink) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
