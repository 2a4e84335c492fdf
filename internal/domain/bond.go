package domain

import "time"

// BondTerms holds the static terms of a bond issue.
// These never change over the life of the bond.
// Corresponds to the bonds table in PostgreSQL.
type BondTerms struct {
	ISIN            string    // PRIMARY KEY
	FaceValue       float64   // redemption amount
	Coupon          float64   // per-period coupon rate (semi-annual: annual/2)
	IssueDate       time.Time
	MaturityDate    time.Time
	CouponStartDate time.Time // first coupon payment date
}

// CouponPayment returns the cash amount of one coupon.
func (b BondTerms) CouponPayment() float64 {
	return b.FaceValue * b.Coupon
}

// Notional returns face value plus the final coupon, the amount due at maturity.
func (b BondTerms) Notional() float64 {
	return b.FaceValue * (1 + b.Coupon)
}

// BondQuote is a single market observation of a bond.
// CleanPrice is quoted as a percentage of face value.
type BondQuote struct {
	ISIN       string
	QuoteDate  time.Time
	CleanPrice float64
}

// DatedBond combines static terms with a quote as of a specific date,
// plus the derived fields the models consume. Composition, not subtyping:
// a DatedBond is never used where bare BondTerms are expected.
type DatedBond struct {
	Terms BondTerms
	Quote BondQuote

	// Derived at construction from Terms + Quote.
	DirtyPrice     float64 // quote price plus accrued coupon, in cash terms
	MaturityPeriod int     // days from quote date to maturity
	CouponPeriods  []int   // days from quote date to each future coupon
}
