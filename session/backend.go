package session

import "sync"

// InMemBackend keeps the session in process memory. Useful for tests and for
// deployments without a redis.
type InMemBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewInMemBackend() *InMemBackend {
	return &InMemBackend{data: make(map[string][]byte)}
}

func (b *InMemBackend) Get(key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.data[key]
	return value, ok, nil
}

func (b *InMemBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *InMemBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}
