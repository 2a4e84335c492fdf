package reporting

import "time"

// Report collects model outputs for a set of firms.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	FirmCount   int

	// Structural model results (sorted by firm, horizon_days, computed_at)
	MertonRows []MertonRow

	// Reduced-form results (sorted by firm, computed_at, then point order)
	DefaultCurveRows []DefaultCurveRow
}

// MertonRow is one structural-model solve in the report.
type MertonRow struct {
	Firm               string
	HorizonDays        int
	AssetValue         float64
	AssetVol           float64
	DistanceToDefault  float64
	DefaultProbability float64
	Converged          bool
	Iterations         int
	ComputedAt         int64 // Unix ms
}

// DefaultCurveRow is one (firm, horizon) cumulative default probability.
type DefaultCurveRow struct {
	Firm         string
	RecoveryRate float64
	HorizonDays  int
	Probability  float64
	ComputedAt   int64 // Unix ms
}
