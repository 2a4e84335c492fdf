// Package merton implements the structural credit model: equity is a
// European call on the firm's assets struck at the debt notional, and
// the unobserved asset value and asset volatility are recovered as the
// fixed point of the coupled price and volatility equations.
package merton

import (
	"errors"
	"fmt"
	"math"

	"credit-risk-lab/internal/domain"
)

var (
	// ErrInvalidInput is returned before iteration starts when no
	// economically meaningful option price exists for the inputs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConverged is returned when the iteration budget runs out.
	// The accompanying result holds the last estimate with
	// Converged set to false; it must not be mistaken for a solution.
	ErrNotConverged = errors.New("fixed point did not converge")
)

// Asset volatility is clamped to this range during iteration to keep
// the inversion stable when N(d1) is close to zero.
const (
	minAssetVol = 1e-4
	maxAssetVol = 10.0
)

// daysPerYear converts day-count horizons to year fractions (ACT/365).
const daysPerYear = 365.0

// Solver holds the fixed-point iteration parameters.
type Solver struct {
	// Tolerance is the relative change of both estimates below which
	// the iteration is considered converged.
	Tolerance float64
	// MaxIterations bounds the outer fixed-point loop.
	MaxIterations int
}

// NewSolver returns a solver with the default tolerance and budget.
func NewSolver() Solver {
	return Solver{Tolerance: 1e-9, MaxIterations: 200}
}

// Solve resolves the implied asset value and asset volatility for the
// firm at the given horizon. The snapshot is not modified.
//
// On success the returned result has Converged == true. If the budget
// is exhausted first, the last estimate is returned together with
// ErrNotConverged so the caller can decide whether to retry or abort.
func (s Solver) Solve(firm domain.FirmSnapshot, horizonDays int) (domain.MertonResult, error) {
	if horizonDays <= 0 {
		return domain.MertonResult{}, fmt.Errorf("horizon %d days: %w", horizonDays, ErrInvalidInput)
	}
	if firm.EquityVol <= 0 {
		return domain.MertonResult{}, fmt.Errorf("equity volatility %f: %w", firm.EquityVol, ErrInvalidInput)
	}
	if firm.DebtNotional <= 0 {
		return domain.MertonResult{}, fmt.Errorf("debt notional %f: %w", firm.DebtNotional, ErrInvalidInput)
	}
	if firm.EquityValue <= 0 {
		return domain.MertonResult{}, fmt.Errorf("equity value %f: %w", firm.EquityValue, ErrInvalidInput)
	}
	if firm.Rates == nil {
		return domain.MertonResult{}, fmt.Errorf("nil rate source: %w", ErrInvalidInput)
	}

	r, err := firm.Rates.Rate(horizonDays)
	if err != nil {
		return domain.MertonResult{}, fmt.Errorf("risk-free rate at %d days: %w", horizonDays, err)
	}

	equity := firm.EquityValue
	debt := firm.DebtNotional
	t := float64(horizonDays) / daysPerYear

	// First-pass approximation: assets are equity plus debt at face,
	// equity volatility scaled down by leverage.
	assets := equity + debt
	sigma := clampVol(firm.EquityVol * equity / assets)

	tol := s.Tolerance
	if tol <= 0 {
		tol = 1e-9
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 200
	}

	converged := false
	iterations := 0
	for i := 1; i <= maxIter; i++ {
		iterations = i

		// Given the volatility estimate, invert the price equation
		// for the asset value; then update the volatility from the
		// option-delta relation sigmaE = (V/E)*N(d1)*sigmaV.
		newAssets := solveAssetValue(equity, debt, r, t, sigma)
		newSigma := clampVol(firm.EquityVol * equity / (newAssets * normCDF(d1(newAssets, debt, r, t, sigma))))

		if relDiff(newAssets, assets) < tol && relDiff(newSigma, sigma) < tol {
			assets, sigma = newAssets, newSigma
			converged = true
			break
		}
		assets, sigma = newAssets, newSigma
	}

	x1 := d1(assets, debt, r, t, sigma)
	d2 := x1 - sigma*math.Sqrt(t)

	result := domain.MertonResult{
		Firm:               firm.Name,
		HorizonDays:        horizonDays,
		AssetValue:         assets,
		AssetVol:           sigma,
		DistanceToDefault:  d2,
		DefaultProbability: normCDF(-d2),
		Converged:          converged,
		Iterations:         iterations,
	}

	if !converged {
		return result, fmt.Errorf("after %d iterations: %w", iterations, ErrNotConverged)
	}
	return result, nil
}

// relDiff is the relative change between successive estimates.
func relDiff(next, prev float64) float64 {
	if prev == 0 {
		return math.Abs(next)
	}
	return math.Abs(next-prev) / math.Abs(prev)
}

func clampVol(sigma float64) float64 {
	switch {
	case sigma < minAssetVol:
		return minAssetVol
	case sigma > maxAssetVol:
		return maxAssetVol
	}
	return sigma
}
