package postgres

import (
	"context"
	"fmt"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// InsertMerton adds a structural-model result.
func (s *ResultStore) InsertMerton(ctx context.Context, r *domain.MertonResult) error {
	if r == nil || r.Firm == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO merton_results (
			firm, horizon_days, asset_value, asset_vol,
			distance_to_default, default_probability, converged, iterations, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.Firm,
		r.HorizonDays,
		r.AssetValue,
		r.AssetVol,
		r.DistanceToDefault,
		r.DefaultProbability,
		r.Converged,
		r.Iterations,
		r.ComputedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert merton result: %w", err)
	}
	return nil
}

// GetMertonByFirm retrieves all results for a firm, ordered by
// horizon ASC, computed_at ASC.
func (s *ResultStore) GetMertonByFirm(ctx context.Context, firm string) ([]*domain.MertonResult, error) {
	query := `
		SELECT firm, horizon_days, asset_value, asset_vol,
		       distance_to_default, default_probability, converged, iterations, computed_at
		FROM merton_results
		WHERE firm = $1
		ORDER BY horizon_days ASC, computed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, firm)
	if err != nil {
		return nil, fmt.Errorf("get merton results by firm: %w", err)
	}
	defer rows.Close()

	var results []*domain.MertonResult
	for rows.Next() {
		var r domain.MertonResult
		err := rows.Scan(
			&r.Firm,
			&r.HorizonDays,
			&r.AssetValue,
			&r.AssetVol,
			&r.DistanceToDefault,
			&r.DefaultProbability,
			&r.Converged,
			&r.Iterations,
			&r.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan merton row: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merton rows: %w", err)
	}
	return results, nil
}

// InsertDefaultCurve adds a reduced-form result with its points in one
// transaction: either the curve and all its points land, or nothing.
func (s *ResultStore) InsertDefaultCurve(ctx context.Context, c *domain.DefaultProbabilityCurve) error {
	if c == nil || c.Firm == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO default_curves (firm, recovery_rate, computed_at)
		VALUES ($1, $2, $3)
	`, c.Firm, c.RecoveryRate, c.ComputedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert default curve: %w", err)
	}

	for i, p := range c.Points {
		_, err = tx.Exec(ctx, `
			INSERT INTO default_curve_points (firm, computed_at, point_index, horizon_days, probability)
			VALUES ($1, $2, $3, $4, $5)
		`, c.Firm, c.ComputedAt, i, p.HorizonDays, p.Probability)
		if err != nil {
			return fmt.Errorf("insert default curve point %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit default curve: %w", err)
	}
	return nil
}

// GetDefaultCurvesByFirm retrieves all curves for a firm, ordered by
// computed_at ASC, points in stored order.
func (s *ResultStore) GetDefaultCurvesByFirm(ctx context.Context, firm string) ([]*domain.DefaultProbabilityCurve, error) {
	curveRows, err := s.pool.Query(ctx, `
		SELECT firm, recovery_rate, computed_at
		FROM default_curves
		WHERE firm = $1
		ORDER BY computed_at ASC
	`, firm)
	if err != nil {
		return nil, fmt.Errorf("get default curves by firm: %w", err)
	}
	defer curveRows.Close()

	var curves []*domain.DefaultProbabilityCurve
	for curveRows.Next() {
		var c domain.DefaultProbabilityCurve
		if err := curveRows.Scan(&c.Firm, &c.RecoveryRate, &c.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan default curve row: %w", err)
		}
		curves = append(curves, &c)
	}
	if err := curveRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate default curve rows: %w", err)
	}

	for _, c := range curves {
		pointRows, err := s.pool.Query(ctx, `
			SELECT horizon_days, probability
			FROM default_curve_points
			WHERE firm = $1 AND computed_at = $2
			ORDER BY point_index ASC
		`, c.Firm, c.ComputedAt)
		if err != nil {
			return nil, fmt.Errorf("get default curve points: %w", err)
		}

		for pointRows.Next() {
			var p domain.DefaultProbabilityPoint
			if err := pointRows.Scan(&p.HorizonDays, &p.Probability); err != nil {
				pointRows.Close()
				return nil, fmt.Errorf("scan default curve point: %w", err)
			}
			c.Points = append(c.Points, p)
		}
		if err := pointRows.Err(); err != nil {
			pointRows.Close()
			return nil, fmt.Errorf("iterate default curve points: %w", err)
		}
		pointRows.Close()
	}

	return curves, nil
}
