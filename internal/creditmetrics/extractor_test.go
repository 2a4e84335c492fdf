package creditmetrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/curve"
)

func flatCurve(t *testing.T, rate float64, maxPeriod int) *curve.Curve {
	t.Helper()
	c, err := curve.New([]curve.Point{{PeriodDays: maxPeriod, Rate: rate}})
	require.NoError(t, err)
	return c
}

func TestDefaultProbs_FlatSpread(t *testing.T) {
	riskFree := flatCurve(t, 0.03, 1825)
	risky := flatCurve(t, 0.05, 1825)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	horizons := []int{365, 730, 1095, 1460, 1825}
	points, err := ext.DefaultProbs(horizons)
	require.NoError(t, err)
	require.Len(t, points, len(horizons))

	prev := 0.0
	for i, p := range points {
		assert.Equal(t, horizons[i], p.HorizonDays)
		assert.Greater(t, p.Probability, 0.0)
		assert.Less(t, p.Probability, 1.0)
		assert.Greater(t, p.Probability, prev, "horizon %d", p.HorizonDays)
		prev = p.Probability

		// PD(t) = 1 - exp(-s*t/(1-R)) with s = 0.02, R = 0.5.
		tYears := float64(p.HorizonDays) / 365.0
		want := 1 - math.Exp(-0.02*tYears/0.5)
		assert.InDelta(t, want, p.Probability, 1e-12)
	}
}

func TestDefaultProbs_ZeroSpread(t *testing.T) {
	riskFree := flatCurve(t, 0.03, 730)
	risky := flatCurve(t, 0.03, 730)

	ext, err := NewExtractor(riskFree, risky, 0.4)
	require.NoError(t, err)

	points, err := ext.DefaultProbs([]int{365, 730})
	require.NoError(t, err)
	for _, p := range points {
		assert.Zero(t, p.Probability)
	}
}

func TestDefaultProbs_CurveInversion(t *testing.T) {
	riskFree := flatCurve(t, 0.05, 730)
	risky := flatCurve(t, 0.03, 730)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{365})
	assert.ErrorIs(t, err, ErrCurveInversion)
	assert.Contains(t, err.Error(), "365")
}

func TestDefaultProbs_InversionAtLaterHorizon(t *testing.T) {
	// Risky curve dips below risk-free past the second year.
	riskFree, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.03}, {PeriodDays: 1095, Rate: 0.03}})
	require.NoError(t, err)
	risky, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.05}, {PeriodDays: 1095, Rate: 0.02}})
	require.NoError(t, err)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{365, 1095})
	assert.ErrorIs(t, err, ErrCurveInversion)
	assert.Contains(t, err.Error(), "1095")
}

func TestDefaultProbs_CurveGap(t *testing.T) {
	riskFree := flatCurve(t, 0.03, 365)
	risky := flatCurve(t, 0.05, 1825)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{365, 1825})
	assert.ErrorIs(t, err, curve.ErrLookup)
	assert.Contains(t, err.Error(), "1825")
}

func TestDefaultProbs_NonMonotoneReported(t *testing.T) {
	// Spread collapsing fast enough that s(t)*t shrinks: cumulative PD
	// would decrease, which is inconsistent for a cumulative curve.
	riskFree, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.03}, {PeriodDays: 1825, Rate: 0.03}})
	require.NoError(t, err)
	risky, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.08}, {PeriodDays: 1825, Rate: 0.031}})
	require.NoError(t, err)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{365, 1825})
	assert.ErrorIs(t, err, ErrNonMonotone)
}

func TestDefaultProbs_NonMonotoneReportedWithUnsortedHorizons(t *testing.T) {
	// Same collapsing spread as above, but the long horizon is asked
	// for first. The decrease must still be caught when the shorter
	// horizon lands above it.
	riskFree, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.03}, {PeriodDays: 1825, Rate: 0.03}})
	require.NoError(t, err)
	risky, err := curve.New([]curve.Point{{PeriodDays: 365, Rate: 0.08}, {PeriodDays: 1825, Rate: 0.031}})
	require.NoError(t, err)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{1825, 365})
	assert.ErrorIs(t, err, ErrNonMonotone)
	assert.Contains(t, err.Error(), "365")
}

func TestDefaultProbs_UnsortedHorizonsKeepRequestOrder(t *testing.T) {
	riskFree := flatCurve(t, 0.03, 1825)
	risky := flatCurve(t, 0.05, 1825)

	ext, err := NewExtractor(riskFree, risky, 0.5)
	require.NoError(t, err)

	points, err := ext.DefaultProbs([]int{1095, 365, 730})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 1095, points[0].HorizonDays)
	assert.Equal(t, 365, points[1].HorizonDays)
	assert.Equal(t, 730, points[2].HorizonDays)
	assert.Greater(t, points[0].Probability, points[2].Probability)
	assert.Greater(t, points[2].Probability, points[1].Probability)
}

func TestNewExtractor_RecoveryRateBounds(t *testing.T) {
	rf := flatCurve(t, 0.03, 365)
	ry := flatCurve(t, 0.05, 365)

	for _, recovery := range []float64{-0.1, 1.0, 1.5} {
		_, err := NewExtractor(rf, ry, recovery)
		assert.ErrorIs(t, err, ErrInvalidInput, "recovery %f", recovery)
	}

	_, err := NewExtractor(rf, ry, 0.0)
	assert.NoError(t, err)
	_, err = NewExtractor(rf, ry, 0.99)
	assert.NoError(t, err)
}

func TestNewExtractor_NilCurves(t *testing.T) {
	rf := flatCurve(t, 0.03, 365)
	_, err := NewExtractor(nil, rf, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewExtractor(rf, nil, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDefaultProbs_NonPositiveHorizon(t *testing.T) {
	rf := flatCurve(t, 0.03, 365)
	ry := flatCurve(t, 0.05, 365)
	ext, err := NewExtractor(rf, ry, 0.5)
	require.NoError(t, err)

	_, err = ext.DefaultProbs([]int{0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
