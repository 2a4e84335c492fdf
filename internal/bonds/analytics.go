// Package bonds derives dated bond analytics (dirty price, maturity
// period, future coupon schedule) from static terms and a market quote.
// Coupons are semi-annual with ACT/182.5 accrual.
package bonds

import (
	"fmt"
	"sort"
	"time"

	"credit-risk-lab/internal/domain"
)

// daysPerCouponPeriod is the accrual denominator for semi-annual coupons.
const daysPerCouponPeriod = 365.0 / 2.0

// NewDatedBond combines bond terms with a quote, computing the dirty
// price, the maturity period and the future coupon schedule as of the
// quote date.
func NewDatedBond(terms domain.BondTerms, quote domain.BondQuote) (domain.DatedBond, error) {
	if terms.ISIN != quote.ISIN {
		return domain.DatedBond{}, fmt.Errorf("quote ISIN %s does not match terms ISIN %s", quote.ISIN, terms.ISIN)
	}
	if terms.FaceValue <= 0 {
		return domain.DatedBond{}, fmt.Errorf("bond %s: non-positive face value %f", terms.ISIN, terms.FaceValue)
	}
	if quote.CleanPrice <= 0 {
		return domain.DatedBond{}, fmt.Errorf("bond %s: non-positive clean price %f", terms.ISIN, quote.CleanPrice)
	}
	if !terms.MaturityDate.After(quote.QuoteDate) {
		return domain.DatedBond{}, fmt.Errorf("bond %s: matured before quote date %s", terms.ISIN, quote.QuoteDate.Format("2006-01-02"))
	}

	// Clean price is quoted as a percentage of face value.
	cashPrice := quote.CleanPrice * terms.FaceValue / 100.0

	last := LastCouponDate(terms.CouponStartDate, quote.QuoteDate)
	accrued := terms.CouponPayment() * float64(daysBetween(last, quote.QuoteDate)) / daysPerCouponPeriod

	return domain.DatedBond{
		Terms:          terms,
		Quote:          quote,
		DirtyPrice:     cashPrice + accrued,
		MaturityPeriod: daysBetween(quote.QuoteDate, terms.MaturityDate),
		CouponPeriods:  FutureCouponPeriods(last, quote.QuoteDate, terms.MaturityDate),
	}, nil
}

// LastCouponDate returns the most recent coupon payment date at or
// before asOf, stepping six months at a time from the first coupon date.
func LastCouponDate(couponStart, asOf time.Time) time.Time {
	date := couponStart
	for date.AddDate(0, 6, 0).Before(asOf) {
		date = date.AddDate(0, 6, 0)
	}
	return date
}

// FutureCouponPeriods returns the day counts from asOf to each coupon
// falling strictly before maturity. The coupon paid at maturity is part
// of the notional, not the schedule.
func FutureCouponPeriods(lastCoupon, asOf, maturity time.Time) []int {
	var periods []int
	for date := lastCoupon.AddDate(0, 6, 0); date.Before(maturity); date = date.AddDate(0, 6, 0) {
		periods = append(periods, daysBetween(asOf, date))
	}
	return periods
}

// SortByMaturity orders dated bonds by ascending maturity period,
// the order the curve bootstrap consumes them in.
func SortByMaturity(bonds []domain.DatedBond) {
	sort.Slice(bonds, func(i, j int) bool {
		return bonds[i].MaturityPeriod < bonds[j].MaturityPeriod
	})
}

// daysBetween returns whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
