// Package memory stores cached product records in-memory for development
// and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// Store keeps raw records in a map keyed by normalized id.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory cache store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the cached raw record for id.
func (s *Store) Get(_ context.Context, id string) ([]byte, bool, error) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil, false, fmt.Errorf("cache id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[clean]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Put stores the raw record for id.
func (s *Store) Put(_ context.Context, id string, data []byte) error {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return fmt.Errorf("cache id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[clean] = append([]byte(nil), data...)
	return nil
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
