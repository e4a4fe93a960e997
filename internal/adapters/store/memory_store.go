// Package store provides core.KVStore implementations for the persisted session.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.KVStore.
// Its contents are lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]string
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]string),
		logger: logger,
	}
}

// Get returns the values of the existing keys
func (s *MemoryStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := s.items[key]; ok {
			values[key] = v
		}
	}
	return values, nil
}

// Set stores all items under one lock
func (s *MemoryStore) Set(ctx context.Context, items map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range items {
		s.items[k] = v
	}
	s.logger.Debug("Stored items", zap.Int("count", len(items)))
	return nil
}

// Remove deletes the keys
func (s *MemoryStore) Remove(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
