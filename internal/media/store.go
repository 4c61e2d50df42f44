package media

import (
	"context"
	"sync"
)

// Store remembers which variants were produced for a cache key so later
// builds can skip decoding and encoding unchanged sources.
type Store interface {
	Lookup(ctx context.Context, key string) (Metadata, bool, error)
	Save(ctx context.Context, key string, md Metadata) error
	Close() error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Metadata
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Metadata)}
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (Metadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.entries[key]
	return md, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, md Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = md
	return nil
}

func (s *MemoryStore) Close() error { return nil }
