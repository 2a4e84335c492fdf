package ingestion

import (
	"errors"
	"math"

	"credit-risk-lab/internal/domain"
)

// tradingDaysPerYear annualizes daily close-to-close returns.
const tradingDaysPerYear = 252.0

// ErrInsufficientHistory is returned when fewer than three price
// observations are available: two returns are the minimum for a
// sample standard deviation.
var ErrInsufficientHistory = errors.New("insufficient price history for volatility estimate")

// AnnualizedVolatility estimates equity volatility as the sample
// standard deviation of consecutive log returns, scaled by the square
// root of the trading days per year. Observations must be in time
// order; non-positive prices are rejected.
func AnnualizedVolatility(obs []domain.PriceObservation) (float64, error) {
	if len(obs) < 3 {
		return 0, ErrInsufficientHistory
	}

	returns := make([]float64, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		if obs[i-1].Price <= 0 || obs[i].Price <= 0 {
			return 0, errors.New("non-positive price in history")
		}
		returns = append(returns, math.Log(obs[i].Price/obs[i-1].Price))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	sumSq := 0.0
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	daily := math.Sqrt(sumSq / float64(len(returns)-1))

	return daily * math.Sqrt(tradingDaysPerYear), nil
}
