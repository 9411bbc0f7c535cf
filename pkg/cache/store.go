package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache backend. Expiry belongs to the backend:
// callers never pass a TTL.
type Store interface {
	// Get reports ok=false on a miss. err is reserved for backend failures.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Name labels the backend in metrics and logs.
	Name() string
}

// MemoryStore keeps entries in a process-local TTLCache.
type MemoryStore struct {
	entries *TTLCache[string, []byte]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	sweep := ttl
	if sweep > time.Minute {
		sweep = time.Minute
	}
	if sweep <= 0 {
		sweep = time.Second
	}
	return &MemoryStore{entries: New[string, []byte](ttl, sweep)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.entries.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.entries.Set(key, value)
	return nil
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Close() { s.entries.Close() }
