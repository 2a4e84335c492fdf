// Package main provides the structural-model CLI: it bootstraps a
// risk-free curve from government bond CSVs, estimates equity volatility
// from a stock price history, and solves for the implied asset value,
// asset volatility and default probability.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"credit-risk-lab/internal/bootstrap"
	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/ingestion"
	"credit-risk-lab/internal/merton"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Configuration file path")
	govInfo := flag.String("gov-info", "", "Government bond static info CSV")
	govPrices := flag.String("gov-prices", "", "Government bond price CSV")
	stockCSV := flag.String("stock", "", "Stock price history CSV")
	firm := flag.String("firm", "", "Firm name")
	symbol := flag.String("symbol", "", "Stock symbol")
	shares := flag.Int64("shares", 0, "Shares outstanding")
	debtFace := flag.Float64("debt-face", 0, "Face value of outstanding debt")
	debtNotional := flag.Float64("debt-notional", 0, "Debt face plus accrued coupon")
	horizon := flag.Int("horizon", 365, "Valuation horizon in days")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)

	if *govInfo == "" || *govPrices == "" || *stockCSV == "" || *firm == "" || *symbol == "" {
		fmt.Fprintln(os.Stderr, "Required flags: -gov-info, -gov-prices, -stock, -firm, -symbol")
		flag.Usage()
		os.Exit(2)
	}

	govBonds, err := loadDatedBonds(*govInfo, *govPrices)
	if err != nil {
		logger.Error("loading government bonds", "error", err)
		os.Exit(1)
	}

	riskFree, err := bootstrap.Build(govBonds)
	if err != nil {
		logger.Error("bootstrapping risk-free curve", "error", err)
		os.Exit(1)
	}
	logger.Info("bootstrapped risk-free curve", "nodes", riskFree.Len(), "max_period_days", riskFree.MaxPeriod())

	history, err := loadStockHistory(*stockCSV, *symbol)
	if err != nil {
		logger.Error("loading stock history", "error", err)
		os.Exit(1)
	}
	vol, err := ingestion.AnnualizedVolatility(history)
	if err != nil {
		logger.Error("estimating equity volatility", "error", err)
		os.Exit(1)
	}

	last := history[len(history)-1]
	snapshot := domain.FirmSnapshot{
		Name:         *firm,
		EquityValue:  float64(*shares) * last.Price,
		EquityVol:    vol,
		DebtFace:     *debtFace,
		DebtNotional: *debtNotional,
		RecoveryRate: cfg.Model.RecoveryRate,
		Rates:        riskFree,
	}

	solver := merton.Solver{Tolerance: cfg.Model.Tolerance, MaxIterations: cfg.Model.MaxIterations}
	result, err := solver.Solve(snapshot, *horizon)
	if err != nil && !errors.Is(err, merton.ErrNotConverged) {
		logger.Error("solving structural model", "error", err)
		os.Exit(1)
	}

	fmt.Printf("=== Structural Model: %s ===\n", result.Firm)
	fmt.Printf("Horizon:             %d days\n", result.HorizonDays)
	fmt.Printf("Equity value:        %.4f\n", snapshot.EquityValue)
	fmt.Printf("Equity volatility:   %.6f\n", snapshot.EquityVol)
	fmt.Printf("Asset value:         %.4f\n", result.AssetValue)
	fmt.Printf("Asset volatility:    %.6f\n", result.AssetVol)
	fmt.Printf("Distance to default: %.6f\n", result.DistanceToDefault)
	fmt.Printf("Default probability: %.16e\n", result.DefaultProbability)
	fmt.Printf("Iterations:          %d\n", result.Iterations)
	if !result.Converged {
		fmt.Println("WARNING: solver did not converge; values are the last estimate")
		os.Exit(1)
	}
}

// loadDatedBonds reads the two bond CSVs and joins them into dated bonds.
func loadDatedBonds(infoPath, pricesPath string) ([]domain.DatedBond, error) {
	infoFile, err := os.Open(infoPath)
	if err != nil {
		return nil, err
	}
	defer infoFile.Close()
	terms, err := ingestion.ReadBondTerms(infoFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", infoPath, err)
	}

	pricesFile, err := os.Open(pricesPath)
	if err != nil {
		return nil, err
	}
	defer pricesFile.Close()
	quotes, err := ingestion.ReadBondQuotes(pricesFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pricesPath, err)
	}

	return ingestion.BuildDatedBonds(terms, quotes)
}

// loadStockHistory reads a stock price CSV.
func loadStockHistory(path, symbol string) ([]domain.PriceObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	obs, err := ingestion.ReadStockHistory(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// newLogger builds a slog logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
