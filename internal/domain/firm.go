package domain

// RateSource resolves a rate for a horizon expressed in days.
// Implemented by the curve package; kept as an interface here so the
// data records stay free of curve construction details.
type RateSource interface {
	// Rate returns the rate for the given period in days.
	// Fails if the period cannot be resolved from the available points.
	Rate(periodDays int) (float64, error)
}

// FirmSnapshot is the observable state of a firm at a valuation date.
// It is the read-only input to the structural model: solvers return
// separate result values and never write back into the snapshot.
type FirmSnapshot struct {
	Name         string
	EquityValue  float64    // market value of equity
	EquityVol    float64    // annualized equity volatility
	DebtFace     float64    // face value of outstanding debt
	DebtNotional float64    // face value plus accrued coupon
	RecoveryRate float64    // fraction of notional recovered on default, [0,1)
	Rates        RateSource // risk-free term structure
}
