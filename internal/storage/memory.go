package storage

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process store for single-process deployments and
// tests. Watch works between bridge instances sharing the same backend,
// mirroring how storage events reach other contexts on the same store.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string]string
	watchers []chan string
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

// Get returns the value for key and whether it exists.
func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key and notifies watchers.
func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.notifyLocked(key)
	return nil
}

// Delete removes key and notifies watchers.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.notifyLocked(key)
	return nil
}

// notifyLocked pushes key to every watcher. Sends are non-blocking; a
// watcher that has fallen behind is covered by the poll fallback.
func (m *MemoryBackend) notifyLocked(key string) {
	for _, ch := range m.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}

// Watch returns a channel of changed keys. The channel closes when ctx is
// cancelled.
func (m *MemoryBackend) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, 16)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

// Ping always succeeds.
func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Close releases nothing; present to satisfy Backend.
func (m *MemoryBackend) Close() error { return nil }
