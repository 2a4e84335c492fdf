package clickhouse

import (
	"context"
	"fmt"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds multiple observations. Fails entire batch on duplicate (symbol, timestamp_ms).
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, o := range obs {
		k := key{o.Symbol, o.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, o := range obs {
		exists, err := s.exists(ctx, o.Symbol, o.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (symbol, timestamp_ms, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		if err := batch.Append(o.Symbol, uint64(o.TimestampMs), o.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all observations for a symbol, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceObservation, error) {
	query := `
		SELECT symbol, timestamp_ms, price
		FROM price_history
		WHERE symbol = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

// GetByTimeRange retrieves observations for a symbol within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceObservation, error) {
	query := `
		SELECT symbol, timestamp_ms, price
		FROM price_history
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

// exists checks if an observation with the given key exists.
func (s *PriceHistoryStore) exists(ctx context.Context, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_history
		WHERE symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPriceHistory scans multiple rows.
func scanPriceHistory(rows chRows) ([]*domain.PriceObservation, error) {
	var obs []*domain.PriceObservation

	for rows.Next() {
		var o domain.PriceObservation
		var timestampMs uint64

		if err := rows.Scan(&o.Symbol, &timestampMs, &o.Price); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		o.TimestampMs = int64(timestampMs)
		obs = append(obs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return obs, nil
}
