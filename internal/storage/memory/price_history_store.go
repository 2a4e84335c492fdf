package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceObservation // keyed by (symbol, timestamp_ms)
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{data: make(map[string]*domain.PriceObservation)}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// obsKey generates a unique key for an observation.
func obsKey(symbol string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", symbol, timestampMs)
}

// InsertBulk adds multiple observations. Fails the entire batch on a
// duplicate (symbol, timestamp_ms), against both existing data and
// the batch itself.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		if o == nil || o.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := obsKey(o.Symbol, o.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range obs {
		obsCopy := *o
		s.data[obsKey(o.Symbol, o.TimestampMs)] = &obsCopy
	}
	return nil
}

// GetBySymbol retrieves all observations for a symbol, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.data {
		if o.Symbol == symbol {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// GetByTimeRange retrieves observations for a symbol within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceObservation
	for _, o := range s.data {
		if o.Symbol == symbol && o.TimestampMs >= start && o.TimestampMs <= end {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}
