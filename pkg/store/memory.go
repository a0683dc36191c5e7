package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/containerd/errdefs"
)

// MemoryStore is an in-process Store used by tests and by the CLI when no
// etcd endpoints are configured. An optional capacity bounds total stored
// bytes so capacity failures can be exercised.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	capacity int64
	used     int64
}

// NewMemoryStore creates an unbounded in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// NewMemoryStoreWithCapacity bounds the store to capacity bytes.
func NewMemoryStoreWithCapacity(capacity int64) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), capacity: capacity}
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := int64(len(value)) - int64(len(s.data[key]))
	if s.capacity > 0 && s.used+delta > s.capacity {
		return fmt.Errorf("store capacity exceeded writing %s: %w", key, errdefs.ErrResourceExhausted)
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	s.used += delta
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, errdefs.ErrNotFound)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.data[key]; ok {
		s.used -= int64(len(value))
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
