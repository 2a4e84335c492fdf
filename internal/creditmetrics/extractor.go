// Package creditmetrics implements the reduced-form credit model:
// cumulative default probabilities derived from the yield spread
// between a risky issuer curve and a risk-free government curve,
// under a constant recovery-rate assumption.
//
// The spread-to-probability relation is the loss-given-default
// adjusted hazard form: PD(t) = 1 - exp(-s(t)*t / (1-R)).
package creditmetrics

import (
	"errors"
	"fmt"
	"math"

	"credit-risk-lab/internal/domain"
)

var (
	// ErrInvalidInput is returned for a recovery rate outside [0,1).
	// Full recovery (R == 1) is rejected rather than treated as a
	// zero-loss issuer; see DESIGN.md.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCurveInversion is returned when the risky yield falls below
	// the risk-free yield at a horizon. The negative spread is
	// numerically usable but economically invalid, so it is reported
	// rather than coerced.
	ErrCurveInversion = errors.New("risky yield below risk-free yield")

	// ErrNonMonotone is returned when a longer horizon produces a
	// lower cumulative default probability than a shorter one.
	ErrNonMonotone = errors.New("cumulative default probability decreased with horizon")
)

const daysPerYear = 365.0

// Extractor derives default probabilities from a pair of curves.
type Extractor struct {
	riskFree domain.RateSource
	risky    domain.RateSource
	recovery float64
}

// NewExtractor validates the recovery rate and returns an extractor.
func NewExtractor(riskFree, risky domain.RateSource, recoveryRate float64) (*Extractor, error) {
	if riskFree == nil || risky == nil {
		return nil, fmt.Errorf("nil curve: %w", ErrInvalidInput)
	}
	if recoveryRate < 0 || recoveryRate >= 1 {
		return nil, fmt.Errorf("recovery rate %f outside [0,1): %w", recoveryRate, ErrInvalidInput)
	}
	return &Extractor{riskFree: riskFree, risky: risky, recovery: recoveryRate}, nil
}

// DefaultProbs returns the cumulative default probability at each
// requested horizon, in request order. Horizons need not be sorted;
// monotonicity is enforced pairwise in both directions against
// horizons already seen. Curve gaps and inversions fail with an error
// naming the offending horizon.
func (e *Extractor) DefaultProbs(horizons []int) ([]domain.DefaultProbabilityPoint, error) {
	points := make([]domain.DefaultProbabilityPoint, 0, len(horizons))

	for _, h := range horizons {
		if h <= 0 {
			return nil, fmt.Errorf("horizon %d days: %w", h, ErrInvalidInput)
		}

		pd, err := e.defaultProb(h)
		if err != nil {
			return nil, err
		}

		for _, prev := range points {
			shorterAbove := prev.HorizonDays < h && prev.Probability > pd
			longerBelow := prev.HorizonDays > h && prev.Probability < pd
			if shorterAbove || longerBelow {
				return nil, fmt.Errorf("horizon %d days: %w", h, ErrNonMonotone)
			}
		}

		points = append(points, domain.DefaultProbabilityPoint{HorizonDays: h, Probability: pd})
	}

	return points, nil
}

// defaultProb computes the cumulative PD at one horizon.
func (e *Extractor) defaultProb(horizonDays int) (float64, error) {
	rf, err := e.riskFree.Rate(horizonDays)
	if err != nil {
		return 0, fmt.Errorf("risk-free rate at %d days: %w", horizonDays, err)
	}
	rr, err := e.risky.Rate(horizonDays)
	if err != nil {
		return 0, fmt.Errorf("risky rate at %d days: %w", horizonDays, err)
	}

	spread := rr - rf
	if spread < 0 {
		return 0, fmt.Errorf("horizon %d days: spread %f: %w", horizonDays, spread, ErrCurveInversion)
	}

	t := float64(horizonDays) / daysPerYear
	pd := 1 - math.Exp(-spread*t/(1-e.recovery))

	// Guard against floating-point spill only; the hazard form is
	// bounded in [0,1) for non-negative spreads.
	return math.Min(math.Max(pd, 0), 1), nil
}
