package storage

import (
	"context"

	"credit-risk-lab/internal/domain"
)

// BondStore provides access to bond static terms.
type BondStore interface {
	// Insert adds bond terms. Returns ErrDuplicateKey if the ISIN exists.
	Insert(ctx context.Context, terms *domain.BondTerms) error

	// GetByISIN retrieves terms by ISIN. Returns ErrNotFound if not exists.
	GetByISIN(ctx context.Context, isin string) (*domain.BondTerms, error)

	// List retrieves all bond terms, ordered by maturity date ASC, ISIN ASC.
	List(ctx context.Context) ([]*domain.BondTerms, error)
}

// PriceHistoryStore provides access to price_history storage.
type PriceHistoryStore interface {
	// InsertBulk adds multiple observations. Fails the entire batch on a
	// duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error

	// GetBySymbol retrieves all observations for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceObservation, error)

	// GetByTimeRange retrieves observations for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceObservation, error)
}

// ResultStore provides access to model outputs.
type ResultStore interface {
	// InsertMerton adds a structural-model result. Returns ErrDuplicateKey
	// if (firm, horizon_days, computed_at) exists.
	InsertMerton(ctx context.Context, r *domain.MertonResult) error

	// GetMertonByFirm retrieves all results for a firm, ordered by
	// horizon ASC, computed_at ASC.
	GetMertonByFirm(ctx context.Context, firm string) ([]*domain.MertonResult, error)

	// InsertDefaultCurve adds a reduced-form result with its points.
	// Returns ErrDuplicateKey if (firm, computed_at) exists.
	InsertDefaultCurve(ctx context.Context, c *domain.DefaultProbabilityCurve) error

	// GetDefaultCurvesByFirm retrieves all curves for a firm, ordered by
	// computed_at ASC, points in horizon order.
	GetDefaultCurvesByFirm(ctx context.Context, firm string) ([]*domain.DefaultProbabilityCurve, error)
}
