package cache

import (
	"context"
	"time"
)

// MemoryStore keeps cached views in process memory.
type MemoryStore struct {
	lru *LRUCache[[]byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store bounded to maxEntries keys. defaultTTL
// applies when Set is called with a non-positive ttl.
func NewMemoryStore(maxEntries int, defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{lru: NewLRUCache[[]byte](maxEntries, defaultTTL)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		s.lru.Set(key, value)
		return nil
	}
	s.lru.SetTTL(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

// CleanExpired lets a Manager sweep the store.
func (s *MemoryStore) CleanExpired() int {
	return s.lru.CleanExpired()
}

// Size reports the number of stored keys.
func (s *MemoryStore) Size() int {
	return s.lru.Size()
}

// Stats reports hit, miss and eviction counters for the metrics endpoint.
func (s *MemoryStore) Stats() Stats {
	return s.lru.Stats()
}
