package curve

import (
	"errors"
	"math"
	"testing"
)

func mustNew(t *testing.T, points []Point) *Curve {
	t.Helper()
	c, err := New(points)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestRate_ExactPeriod(t *testing.T) {
	c := mustNew(t, []Point{{365, 0.03}, {730, 0.035}, {1095, 0.04}})

	r, err := c.Rate(730)
	if err != nil {
		t.Fatalf("Rate(730): %v", err)
	}
	if r != 0.035 {
		t.Errorf("expected 0.035, got %f", r)
	}
}

func TestRate_LinearInterpolation(t *testing.T) {
	c := mustNew(t, []Point{{365, 0.03}, {1095, 0.04}})

	// 730 is midway between 365 and 1095.
	r, err := c.Rate(730)
	if err != nil {
		t.Fatalf("Rate(730): %v", err)
	}
	if math.Abs(r-0.035) > 1e-12 {
		t.Errorf("expected 0.035, got %f", r)
	}
}

func TestRate_FlatShortEnd(t *testing.T) {
	c := mustNew(t, []Point{{365, 0.03}, {730, 0.035}})

	r, err := c.Rate(90)
	if err != nil {
		t.Fatalf("Rate(90): %v", err)
	}
	if r != 0.03 {
		t.Errorf("expected flat extrapolation to 0.03, got %f", r)
	}
}

func TestRate_PastLongEndFails(t *testing.T) {
	c := mustNew(t, []Point{{365, 0.03}, {730, 0.035}})

	_, err := c.Rate(1825)
	if !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestRate_EmptyCurveFails(t *testing.T) {
	c := mustNew(t, nil)

	_, err := c.Rate(365)
	if !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestRate_NonPositivePeriodFails(t *testing.T) {
	c := mustNew(t, []Point{{365, 0.03}})

	for _, period := range []int{0, -365} {
		_, err := c.Rate(period)
		if !errors.Is(err, ErrLookup) {
			t.Errorf("Rate(%d): expected ErrLookup, got %v", period, err)
		}
	}
}

func TestNew_SortsPoints(t *testing.T) {
	c := mustNew(t, []Point{{1095, 0.04}, {365, 0.03}, {730, 0.035}})

	pts := c.Points()
	for i := 1; i < len(pts); i++ {
		if pts[i].PeriodDays <= pts[i-1].PeriodDays {
			t.Fatalf("points not strictly increasing: %v", pts)
		}
	}
	if c.MaxPeriod() != 1095 {
		t.Errorf("expected MaxPeriod 1095, got %d", c.MaxPeriod())
	}
}

func TestNew_RejectsDuplicatePeriods(t *testing.T) {
	_, err := New([]Point{{365, 0.03}, {365, 0.031}})
	if err == nil {
		t.Fatal("expected error for duplicate periods")
	}
}

func TestNew_RejectsNonPositivePeriods(t *testing.T) {
	_, err := New([]Point{{0, 0.03}})
	if err == nil {
		t.Fatal("expected error for zero period")
	}
}

func TestAppend_MaintainsOrder(t *testing.T) {
	c := mustNew(t, nil)

	if err := c.Append(365, 0.03); err != nil {
		t.Fatalf("Append(365): %v", err)
	}
	if err := c.Append(730, 0.035); err != nil {
		t.Fatalf("Append(730): %v", err)
	}
	if err := c.Append(730, 0.04); err == nil {
		t.Fatal("expected error appending non-increasing period")
	}
	if err := c.Append(400, 0.04); err == nil {
		t.Fatal("expected error appending earlier period")
	}
}
