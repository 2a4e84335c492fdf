package domain

// MertonResult is the output of one structural-model solve.
// Corresponds to the merton_results table in PostgreSQL.
type MertonResult struct {
	Firm               string
	HorizonDays        int
	AssetValue         float64 // implied market value of assets
	AssetVol           float64 // implied asset volatility
	DistanceToDefault  float64 // d2 at the horizon
	DefaultProbability float64 // N(-d2)
	Converged          bool    // false when the iteration budget ran out
	Iterations         int
	ComputedAt         int64 // Unix timestamp in milliseconds
}

// DefaultProbabilityPoint is one (horizon, cumulative PD) pair.
type DefaultProbabilityPoint struct {
	HorizonDays int
	Probability float64 // cumulative default probability, [0,1]
}

// DefaultProbabilityCurve is the output of the reduced-form model:
// cumulative default probabilities per requested horizon, in request order.
// Corresponds to the default_curves table in PostgreSQL.
type DefaultProbabilityCurve struct {
	Firm         string
	RecoveryRate float64
	Points       []DefaultProbabilityPoint
	ComputedAt   int64 // Unix timestamp in milliseconds
}
