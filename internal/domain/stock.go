package domain

import "time"

// StockTerms holds the static description of a listed equity.
type StockTerms struct {
	Symbol      string // PRIMARY KEY
	SharesOut   int64  // shares outstanding
}

// StockQuote is the equity state as of a valuation date.
type StockQuote struct {
	Symbol    string
	QuoteDate time.Time
	Close     float64
}

// MarketCap returns shares outstanding times the closing price.
func (t StockTerms) MarketCap(q StockQuote) float64 {
	return float64(t.SharesOut) * q.Close
}

// PriceObservation is one point of a price history.
// Corresponds to the price_history table in ClickHouse.
type PriceObservation struct {
	Symbol      string  // instrument identifier (stock symbol or bond ISIN)
	TimestampMs int64   // Unix timestamp in milliseconds
	Price       float64 // observed price
}
