// Package ingestion loads market data into the analysis: CSV files for
// bond terms, bond quotes and stock price histories, a historical
// volatility estimate, and a websocket quote feed for live prices.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"credit-risk-lab/internal/bonds"
	"credit-risk-lab/internal/domain"
)

// Bond info CSV columns. Coupon is quoted in percent per annum and
// stored as a per-period (semi-annual) rate.
var bondTermsColumns = []string{"ISIN", "FV", "Coupon", "Issue Date", "Maturity Date", "Coupon Start Date"}

// Bond price CSV columns. Price is a percentage of face value.
var bondQuoteColumns = []string{"ISIN", "Price Date", "Price"}

// Stock price CSV columns.
var stockColumns = []string{"Date", "Close"}

// dateLayouts are tried in order when parsing CSV dates.
var dateLayouts = []string{"2006-01-02", "01-02-2006"}

// ReadBondTerms parses a bond static-info CSV.
func ReadBondTerms(r io.Reader) ([]domain.BondTerms, error) {
	rows, idx, err := readTable(r, bondTermsColumns)
	if err != nil {
		return nil, err
	}

	terms := make([]domain.BondTerms, 0, len(rows))
	for _, row := range rows {
		fv, err := parseFloat(row.fields[idx["FV"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: FV: %w", row.line, err)
		}
		couponPct, err := parseFloat(row.fields[idx["Coupon"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Coupon: %w", row.line, err)
		}
		issue, err := parseDate(row.fields[idx["Issue Date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Issue Date: %w", row.line, err)
		}
		maturity, err := parseDate(row.fields[idx["Maturity Date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Maturity Date: %w", row.line, err)
		}
		couponStart, err := parseDate(row.fields[idx["Coupon Start Date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Coupon Start Date: %w", row.line, err)
		}

		terms = append(terms, domain.BondTerms{
			ISIN:            row.fields[idx["ISIN"]],
			FaceValue:       fv,
			Coupon:          couponPct / 100.0 / 2.0, // percent p.a. -> semi-annual decimal
			IssueDate:       issue,
			MaturityDate:    maturity,
			CouponStartDate: couponStart,
		})
	}
	return terms, nil
}

// ReadBondQuotes parses a bond price CSV.
func ReadBondQuotes(r io.Reader) ([]domain.BondQuote, error) {
	rows, idx, err := readTable(r, bondQuoteColumns)
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.BondQuote, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.fields[idx["Price Date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Price Date: %w", row.line, err)
		}
		price, err := parseFloat(row.fields[idx["Price"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Price: %w", row.line, err)
		}
		quotes = append(quotes, domain.BondQuote{
			ISIN:       row.fields[idx["ISIN"]],
			QuoteDate:  date,
			CleanPrice: price,
		})
	}
	return quotes, nil
}

// ReadStockHistory parses a stock price CSV into price observations
// attributed to the given symbol, ordered as in the file.
func ReadStockHistory(r io.Reader, symbol string) ([]domain.PriceObservation, error) {
	rows, idx, err := readTable(r, stockColumns)
	if err != nil {
		return nil, err
	}

	obs := make([]domain.PriceObservation, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.fields[idx["Date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Date: %w", row.line, err)
		}
		closePrice, err := parseFloat(row.fields[idx["Close"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: Close: %w", row.line, err)
		}
		obs = append(obs, domain.PriceObservation{
			Symbol:      symbol,
			TimestampMs: date.UnixMilli(),
			Price:       closePrice,
		})
	}
	return obs, nil
}

// BuildDatedBonds inner-joins terms and quotes on ISIN and derives the
// dated bonds, sorted by maturity period. Quotes without matching terms
// are skipped, mirroring an inner merge of the two files.
func BuildDatedBonds(terms []domain.BondTerms, quotes []domain.BondQuote) ([]domain.DatedBond, error) {
	byISIN := make(map[string]domain.BondTerms, len(terms))
	for _, t := range terms {
		byISIN[t.ISIN] = t
	}

	var dated []domain.DatedBond
	for _, q := range quotes {
		t, ok := byISIN[q.ISIN]
		if !ok {
			continue
		}
		b, err := bonds.NewDatedBond(t, q)
		if err != nil {
			return nil, err
		}
		dated = append(dated, b)
	}
	bonds.SortByMaturity(dated)
	return dated, nil
}

// row is one CSV record with its 1-based line number for error reports.
type row struct {
	line   int
	fields []string
}

// readTable reads a headered CSV and verifies the required columns are
// present, returning the data rows and a column-name index.
func readTable(r io.Reader, required []string) ([]row, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var rows []row
	line := 1
	for {
		fields, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row{line: line, fields: fields})
	}
	return rows, idx, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", s)
}
