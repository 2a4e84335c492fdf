package bonds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTerms() domain.BondTerms {
	return domain.BondTerms{
		ISIN:            "CA135087K528",
		FaceValue:       100,
		Coupon:          0.02, // 4% annual, semi-annual periods
		IssueDate:       date(2020, time.June, 1),
		MaturityDate:    date(2030, time.June, 1),
		CouponStartDate: date(2020, time.December, 1),
	}
}

func TestNewDatedBond_DirtyPriceIncludesAccrued(t *testing.T) {
	terms := testTerms()
	quote := domain.BondQuote{
		ISIN:       terms.ISIN,
		QuoteDate:  date(2024, time.March, 1),
		CleanPrice: 98.5,
	}

	bond, err := NewDatedBond(terms, quote)
	require.NoError(t, err)

	// Last coupon 2023-12-01, 91 days of accrual at 2 per period.
	accrued := 2.0 * 91.0 / 182.5
	assert.InDelta(t, 98.5+accrued, bond.DirtyPrice, 1e-9)
	assert.GreaterOrEqual(t, bond.DirtyPrice, quote.CleanPrice*terms.FaceValue/100.0)
}

func TestNewDatedBond_MaturityPeriod(t *testing.T) {
	terms := testTerms()
	quote := domain.BondQuote{ISIN: terms.ISIN, QuoteDate: date(2029, time.June, 1), CleanPrice: 99.0}

	bond, err := NewDatedBond(terms, quote)
	require.NoError(t, err)
	assert.Equal(t, 365, bond.MaturityPeriod)
}

func TestNewDatedBond_CouponPeriodsExcludeMaturity(t *testing.T) {
	terms := testTerms()
	quote := domain.BondQuote{ISIN: terms.ISIN, QuoteDate: date(2029, time.March, 1), CleanPrice: 99.0}

	bond, err := NewDatedBond(terms, quote)
	require.NoError(t, err)

	// Remaining coupons: 2029-06-01 and 2029-12-01. The 2030-06-01 coupon
	// is paid at maturity and belongs to the notional.
	require.Len(t, bond.CouponPeriods, 2)
	assert.Equal(t, 92, bond.CouponPeriods[0])
	assert.Equal(t, 275, bond.CouponPeriods[1])
	for _, p := range bond.CouponPeriods {
		assert.Less(t, p, bond.MaturityPeriod)
	}
}

func TestNewDatedBond_Rejections(t *testing.T) {
	terms := testTerms()

	cases := []struct {
		name  string
		quote domain.BondQuote
	}{
		{"mismatched isin", domain.BondQuote{ISIN: "XS0000000000", QuoteDate: date(2024, time.March, 1), CleanPrice: 99}},
		{"non-positive price", domain.BondQuote{ISIN: terms.ISIN, QuoteDate: date(2024, time.March, 1), CleanPrice: 0}},
		{"quote after maturity", domain.BondQuote{ISIN: terms.ISIN, QuoteDate: date(2031, time.January, 1), CleanPrice: 99}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDatedBond(terms, tc.quote)
			assert.Error(t, err)
		})
	}
}

func TestLastCouponDate(t *testing.T) {
	start := date(2020, time.December, 1)

	// Two coupons elapsed by mid-2021... stepping stops once the next
	// step would land at or past asOf.
	got := LastCouponDate(start, date(2022, time.January, 15))
	assert.Equal(t, date(2021, time.December, 1), got)

	// asOf before the first coupon: the start date stands.
	got = LastCouponDate(start, date(2020, time.June, 15))
	assert.Equal(t, start, got)
}

func TestNotionalAndCouponPayment(t *testing.T) {
	terms := testTerms()
	assert.InDelta(t, 2.0, terms.CouponPayment(), 1e-12)
	assert.InDelta(t, 102.0, terms.Notional(), 1e-12)
}

func TestSortByMaturity(t *testing.T) {
	bonds := []domain.DatedBond{
		{MaturityPeriod: 1825},
		{MaturityPeriod: 365},
		{MaturityPeriod: 1095},
	}
	SortByMaturity(bonds)
	assert.Equal(t, []int{365, 1095, 1825},
		[]int{bonds[0].MaturityPeriod, bonds[1].MaturityPeriod, bonds[2].MaturityPeriod})
}
