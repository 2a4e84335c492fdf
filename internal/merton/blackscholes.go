package merton

import "math"

// normCDF is the standard normal cumulative distribution function.
// P(X <= x) = 0.5 * (1 + erf(x / sqrt(2)))
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// d1 for a call on assets V with strike D (the debt notional), rate r,
// asset volatility sigma and horizon T in years.
func d1(v, d, r, t, sigma float64) float64 {
	return (math.Log(v/d) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// callPrice is the Black-Scholes-Merton value of equity: a European
// call on the firm's assets struck at the debt notional.
// E = V*N(d1) - D*exp(-rT)*N(d2)
func callPrice(v, d, r, t, sigma float64) float64 {
	x1 := d1(v, d, r, t, sigma)
	x2 := x1 - sigma*math.Sqrt(t)
	return v*normCDF(x1) - d*math.Exp(-r*t)*normCDF(x2)
}

// solveAssetValue inverts the call-price equation for the asset value
// given the current volatility estimate, by bisection. The call price
// is monotone increasing in V, and the root is bracketed by
// [E, E + D*exp(-rT)]: a call is worth at most the underlying and at
// least the forward intrinsic value.
func solveAssetValue(equity, debt, r, t, sigma float64) float64 {
	lo := equity
	hi := equity + debt*math.Exp(-r*t)

	for i := 0; i < assetValueMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		if callPrice(mid, debt, r, t, sigma) < equity {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < assetValueTolerance*hi {
			break
		}
	}
	return 0.5 * (lo + hi)
}

const (
	assetValueTolerance = 1e-12
	assetValueMaxIter   = 200
)
