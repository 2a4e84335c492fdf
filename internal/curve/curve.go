// Package curve provides the ordered rate-curve container shared by the
// structural and reduced-form models.
//
// Lookup policy (fixed, see DESIGN.md): exact periods return the stored
// rate; periods between two stored points are linearly interpolated in
// rate; periods before the first point fall back flat to the first rate
// (short-end convention, needed when a coupon falls before the shortest
// quoted maturity); periods past the last point fail with ErrLookup.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// ErrLookup is returned when a period cannot be resolved from the
// available curve points. The wrapping error names the period.
var ErrLookup = errors.New("period not resolvable from curve")

// Point is one (period, rate) node of a curve.
type Point struct {
	PeriodDays int     // days from the valuation date, > 0
	Rate       float64 // continuously-compounded annualized rate
}

// Curve is an ordered set of rate points. Periods are strictly
// increasing and unique. Read-only once handed to a model.
type Curve struct {
	points []Point
}

// New builds a curve from the given points. Points are sorted by period;
// non-positive or duplicate periods are rejected.
func New(points []Point) (*Curve, error) {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodDays < sorted[j].PeriodDays
	})

	for i, p := range sorted {
		if p.PeriodDays <= 0 {
			return nil, fmt.Errorf("curve point %d: non-positive period %d", i, p.PeriodDays)
		}
		if i > 0 && p.PeriodDays == sorted[i-1].PeriodDays {
			return nil, fmt.Errorf("curve point %d: duplicate period %d", i, p.PeriodDays)
		}
	}

	return &Curve{points: sorted}, nil
}

// Append adds a point past the current long end. Used by the bootstrap,
// which discovers rates in maturity order; general callers should build
// the full point set and call New.
func (c *Curve) Append(periodDays int, rate float64) error {
	if periodDays <= 0 {
		return fmt.Errorf("append: non-positive period %d", periodDays)
	}
	if n := len(c.points); n > 0 && periodDays <= c.points[n-1].PeriodDays {
		return fmt.Errorf("append: period %d not past last point %d", periodDays, c.points[n-1].PeriodDays)
	}
	c.points = append(c.points, Point{PeriodDays: periodDays, Rate: rate})
	return nil
}

// Len returns the number of points.
func (c *Curve) Len() int {
	return len(c.points)
}

// Points returns a copy of the curve nodes in period order.
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// MaxPeriod returns the longest resolvable period, 0 for an empty curve.
func (c *Curve) MaxPeriod() int {
	if len(c.points) == 0 {
		return 0
	}
	return c.points[len(c.points)-1].PeriodDays
}

// Rate resolves the rate for a period in days under the package lookup
// policy. Returns ErrLookup (wrapped, naming the period) when the curve
// is empty or the period lies past the last point.
func (c *Curve) Rate(periodDays int) (float64, error) {
	if periodDays <= 0 {
		return 0, fmt.Errorf("rate: non-positive period %d: %w", periodDays, ErrLookup)
	}
	if len(c.points) == 0 {
		return 0, fmt.Errorf("rate: period %d on empty curve: %w", periodDays, ErrLookup)
	}

	// Binary search for the first node at or past the target.
	idx := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].PeriodDays >= periodDays
	})

	if idx == len(c.points) {
		return 0, fmt.Errorf("rate: period %d past last point %d: %w",
			periodDays, c.points[idx-1].PeriodDays, ErrLookup)
	}
	if c.points[idx].PeriodDays == periodDays {
		return c.points[idx].Rate, nil
	}
	if idx == 0 {
		// Short end: flat at the first quoted rate.
		return c.points[0].Rate, nil
	}

	// Linear interpolation between the bracketing nodes.
	lo, hi := c.points[idx-1], c.points[idx]
	frac := float64(periodDays-lo.PeriodDays) / float64(hi.PeriodDays-lo.PeriodDays)
	return lo.Rate + frac*(hi.Rate-lo.Rate), nil
}
