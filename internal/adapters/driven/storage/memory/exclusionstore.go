package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure ExclusionStore implements the interface.
var _ driven.ExclusionStore = (*ExclusionStore)(nil)

// ExclusionStore is an in-memory implementation of driven.ExclusionStore.
// Membership is keyed on the normalised address string.
type ExclusionStore struct {
	mu        sync.RWMutex
	addresses map[string]struct{}
}

// NewExclusionStore creates a new in-memory exclusion store.
func NewExclusionStore() *ExclusionStore {
	return &ExclusionStore{
		addresses: make(map[string]struct{}),
	}
}

// Add records a normalised address as excluded.
func (s *ExclusionStore) Add(_ context.Context, normalized string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[normalized] = struct{}{}
	return nil
}

// IsExcluded checks membership of a normalised address.
func (s *ExclusionStore) IsExcluded(_ context.Context, normalized string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.addresses[normalized]
	return ok, nil
}

// Count returns the number of excluded addresses.
func (s *ExclusionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addresses), nil
}
