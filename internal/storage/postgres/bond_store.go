package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// BondStore implements storage.BondStore using PostgreSQL.
type BondStore struct {
	pool *Pool
}

// NewBondStore creates a new BondStore.
func NewBondStore(pool *Pool) *BondStore {
	return &BondStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BondStore = (*BondStore)(nil)

// Insert adds bond terms. Returns ErrDuplicateKey if the ISIN exists.
func (s *BondStore) Insert(ctx context.Context, terms *domain.BondTerms) error {
	if terms == nil || terms.ISIN == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bonds (
			isin, face_value, coupon, issue_date, maturity_date, coupon_start_date
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		terms.ISIN,
		terms.FaceValue,
		terms.Coupon,
		terms.IssueDate,
		terms.MaturityDate,
		terms.CouponStartDate,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bond: %w", err)
	}
	return nil
}

// GetByISIN retrieves terms by ISIN. Returns ErrNotFound if not exists.
func (s *BondStore) GetByISIN(ctx context.Context, isin string) (*domain.BondTerms, error) {
	query := `
		SELECT isin, face_value, coupon, issue_date, maturity_date, coupon_start_date
		FROM bonds
		WHERE isin = $1
	`

	row := s.pool.QueryRow(ctx, query, isin)
	terms, err := scanBond(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bond by isin: %w", err)
	}
	return terms, nil
}

// List retrieves all bond terms, ordered by maturity date ASC, ISIN ASC.
func (s *BondStore) List(ctx context.Context) ([]*domain.BondTerms, error) {
	query := `
		SELECT isin, face_value, coupon, issue_date, maturity_date, coupon_start_date
		FROM bonds
		ORDER BY maturity_date ASC, isin ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bonds: %w", err)
	}
	defer rows.Close()

	var all []*domain.BondTerms
	for rows.Next() {
		terms, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bond row: %w", err)
		}
		all = append(all, terms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bond rows: %w", err)
	}
	return all, nil
}

// scanBond scans a single row into BondTerms.
func scanBond(row pgx.Row) (*domain.BondTerms, error) {
	var terms domain.BondTerms
	err := row.Scan(
		&terms.ISIN,
		&terms.FaceValue,
		&terms.Coupon,
		&terms.IssueDate,
		&terms.MaturityDate,
		&terms.CouponStartDate,
	)
	if err != nil {
		return nil, err
	}
	return &terms, nil
}
