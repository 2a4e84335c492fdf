package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// BondStore is an in-memory implementation of storage.BondStore.
type BondStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BondTerms // keyed by ISIN
}

// NewBondStore creates a new in-memory bond store.
func NewBondStore() *BondStore {
	return &BondStore{data: make(map[string]*domain.BondTerms)}
}

// Compile-time interface check.
var _ storage.BondStore = (*BondStore)(nil)

// Insert adds bond terms. Returns ErrDuplicateKey if the ISIN exists.
func (s *BondStore) Insert(_ context.Context, terms *domain.BondTerms) error {
	if terms == nil || terms.ISIN == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[terms.ISIN]; exists {
		return storage.ErrDuplicateKey
	}
	termsCopy := *terms
	s.data[terms.ISIN] = &termsCopy
	return nil
}

// GetByISIN retrieves terms by ISIN. Returns ErrNotFound if not exists.
func (s *BondStore) GetByISIN(_ context.Context, isin string) (*domain.BondTerms, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms, ok := s.data[isin]
	if !ok {
		return nil, storage.ErrNotFound
	}
	termsCopy := *terms
	return &termsCopy, nil
}

// List retrieves all bond terms, ordered by maturity date ASC, ISIN ASC.
func (s *BondStore) List(_ context.Context) ([]*domain.BondTerms, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BondTerms, 0, len(s.data))
	for _, terms := range s.data {
		termsCopy := *terms
		result = append(result, &termsCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].MaturityDate.Equal(result[j].MaturityDate) {
			return result[i].MaturityDate.Before(result[j].MaturityDate)
		}
		return result[i].ISIN < result[j].ISIN
	})

	return result, nil
}
