package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu     sync.RWMutex
	merton map[string]*domain.MertonResult            // keyed by (firm, horizon_days, computed_at)
	curves map[string]*domain.DefaultProbabilityCurve // keyed by (firm, computed_at)
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		merton: make(map[string]*domain.MertonResult),
		curves: make(map[string]*domain.DefaultProbabilityCurve),
	}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

func mertonKey(firm string, horizonDays int, computedAt int64) string {
	return fmt.Sprintf("%s|%d|%d", firm, horizonDays, computedAt)
}

func curveKey(firm string, computedAt int64) string {
	return fmt.Sprintf("%s|%d", firm, computedAt)
}

// InsertMerton adds a structural-model result.
func (s *ResultStore) InsertMerton(_ context.Context, r *domain.MertonResult) error {
	if r == nil || r.Firm == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := mertonKey(r.Firm, r.HorizonDays, r.ComputedAt)
	if _, exists := s.merton[key]; exists {
		return storage.ErrDuplicateKey
	}
	resultCopy := *r
	s.merton[key] = &resultCopy
	return nil
}

// GetMertonByFirm retrieves all results for a firm, ordered by
// horizon ASC, computed_at ASC.
func (s *ResultStore) GetMertonByFirm(_ context.Context, firm string) ([]*domain.MertonResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MertonResult
	for _, r := range s.merton {
		if r.Firm == firm {
			resultCopy := *r
			result = append(result, &resultCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].HorizonDays != result[j].HorizonDays {
			return result[i].HorizonDays < result[j].HorizonDays
		}
		return result[i].ComputedAt < result[j].ComputedAt
	})
	return result, nil
}

// InsertDefaultCurve adds a reduced-form result with its points.
func (s *ResultStore) InsertDefaultCurve(_ context.Context, c *domain.DefaultProbabilityCurve) error {
	if c == nil || c.Firm == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := curveKey(c.Firm, c.ComputedAt)
	if _, exists := s.curves[key]; exists {
		return storage.ErrDuplicateKey
	}

	curveCopy := *c
	curveCopy.Points = make([]domain.DefaultProbabilityPoint, len(c.Points))
	copy(curveCopy.Points, c.Points)
	s.curves[key] = &curveCopy
	return nil
}

// GetDefaultCurvesByFirm retrieves all curves for a firm, ordered by
// computed_at ASC.
func (s *ResultStore) GetDefaultCurvesByFirm(_ context.Context, firm string) ([]*domain.DefaultProbabilityCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DefaultProbabilityCurve
	for _, c := range s.curves {
		if c.Firm == firm {
			curveCopy := *c
			curveCopy.Points = make([]domain.DefaultProbabilityPoint, len(c.Points))
			copy(curveCopy.Points, c.Points)
			result = append(result, &curveCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ComputedAt < result[j].ComputedAt
	})
	return result, nil
}
