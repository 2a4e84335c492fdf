// Package bootstrap builds a zero-rate curve from a set of dated bonds.
// Bonds are consumed in maturity order; each bond contributes the rate
// at its own maturity, with earlier coupons discounted off the curve
// built so far. Rates are continuously compounded, ACT/365.
package bootstrap

import (
	"errors"
	"fmt"
	"math"

	"credit-risk-lab/internal/bonds"
	"credit-risk-lab/internal/curve"
	"credit-risk-lab/internal/domain"
)

// ErrNoSolution is returned when a bond's dirty price cannot be
// reproduced by any rate inside the search bracket, which points at
// bad price or schedule data rather than a solver problem.
var ErrNoSolution = errors.New("no zero rate reprices the bond")

const (
	daysPerYear = 365.0

	rateFloor   = -0.5
	rateCeiling = 1.0
	tolerance   = 1e-10
	maxIter     = 200
)

// Build bootstraps a curve from the given bonds. The input slice is
// re-sorted by maturity; bonds sharing a maturity period are rejected.
func Build(dated []domain.DatedBond) (*curve.Curve, error) {
	if len(dated) == 0 {
		return nil, errors.New("no bonds to bootstrap from")
	}

	sorted := make([]domain.DatedBond, len(dated))
	copy(sorted, dated)
	bonds.SortByMaturity(sorted)

	c, err := curve.New(nil)
	if err != nil {
		return nil, err
	}

	for i, b := range sorted {
		if b.DirtyPrice <= 0 {
			return nil, fmt.Errorf("bond %s: non-positive dirty price %f", b.Terms.ISIN, b.DirtyPrice)
		}
		if b.MaturityPeriod <= 0 {
			return nil, fmt.Errorf("bond %s: non-positive maturity period %d", b.Terms.ISIN, b.MaturityPeriod)
		}
		if i > 0 && b.MaturityPeriod == sorted[i-1].MaturityPeriod {
			return nil, fmt.Errorf("bonds %s and %s share maturity period %d",
				sorted[i-1].Terms.ISIN, b.Terms.ISIN, b.MaturityPeriod)
		}

		rate, err := solveRate(c, b)
		if err != nil {
			return nil, fmt.Errorf("bond %s: %w", b.Terms.ISIN, err)
		}
		if err := c.Append(b.MaturityPeriod, rate); err != nil {
			return nil, fmt.Errorf("bond %s: %w", b.Terms.ISIN, err)
		}
	}

	return c, nil
}

// solveRate bisects for the zero rate at the bond's maturity such that
// the discounted cashflows match the dirty price. The present value is
// strictly decreasing in the candidate rate.
func solveRate(c *curve.Curve, b domain.DatedBond) (float64, error) {
	lo, hi := rateFloor, rateCeiling
	fLo := presentValue(c, b, lo) - b.DirtyPrice
	fHi := presentValue(c, b, hi) - b.DirtyPrice
	if fLo < 0 || fHi > 0 {
		return 0, fmt.Errorf("price %f outside [%f, %f]: %w",
			b.DirtyPrice, presentValue(c, b, hi), presentValue(c, b, lo), ErrNoSolution)
	}

	for i := 0; i < maxIter; i++ {
		mid := 0.5 * (lo + hi)
		if presentValue(c, b, mid) > b.DirtyPrice {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < tolerance {
			break
		}
	}
	return 0.5 * (lo + hi), nil
}

// presentValue discounts the bond's cashflows: coupons covered by the
// curve built so far at their curve rate, coupons between the curve's
// long end and the bond's maturity at the rate the finished curve will
// interpolate for them (so the bond reprices exactly once its node is
// appended), and the notional at the candidate rate.
func presentValue(c *curve.Curve, b domain.DatedBond, candidate float64) float64 {
	pv := 0.0
	for _, p := range b.CouponPeriods {
		pv += b.Terms.CouponPayment() * discount(couponRate(c, b, candidate, p), p)
	}
	return pv + b.Terms.Notional()*discount(candidate, b.MaturityPeriod)
}

// couponRate resolves the discount rate for a coupon period while the
// bond's own node is still the candidate rate.
func couponRate(c *curve.Curve, b domain.DatedBond, candidate float64, periodDays int) float64 {
	if c.Len() == 0 {
		return candidate
	}
	last := c.MaxPeriod()
	if periodDays <= last {
		if r, err := c.Rate(periodDays); err == nil {
			return r
		}
		return candidate
	}
	// Between the curve's long end and the bond's maturity: linear in
	// rate, matching the curve's own interpolation policy.
	lastRate, err := c.Rate(last)
	if err != nil {
		return candidate
	}
	frac := float64(periodDays-last) / float64(b.MaturityPeriod-last)
	return lastRate + frac*(candidate-lastRate)
}

func discount(rate float64, periodDays int) float64 {
	return math.Exp(-rate * float64(periodDays) / daysPerYear)
}
