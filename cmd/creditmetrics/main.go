// Package main provides the reduced-form CLI: it bootstraps risk-free
// and risky zero curves from bond CSVs and converts the credit spread
// into cumulative default probabilities over a horizon grid.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"credit-risk-lab/internal/bootstrap"
	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/creditmetrics"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/ingestion"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Configuration file path")
	govInfo := flag.String("gov-info", "", "Government bond static info CSV")
	govPrices := flag.String("gov-prices", "", "Government bond price CSV")
	corpInfo := flag.String("corp-info", "", "Corporate bond static info CSV")
	corpPrices := flag.String("corp-prices", "", "Corporate bond price CSV")
	firm := flag.String("firm", "", "Firm name")
	recovery := flag.Float64("recovery", -1, "Recovery rate in [0,1); defaults to config")
	horizons := flag.String("horizons", "", "Comma-separated horizons in days; defaults to config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)

	if *govInfo == "" || *govPrices == "" || *corpInfo == "" || *corpPrices == "" || *firm == "" {
		fmt.Fprintln(os.Stderr, "Required flags: -gov-info, -gov-prices, -corp-info, -corp-prices, -firm")
		flag.Usage()
		os.Exit(2)
	}

	recoveryRate := cfg.Model.RecoveryRate
	if *recovery >= 0 {
		recoveryRate = *recovery
	}

	grid := cfg.Model.HorizonDays
	if *horizons != "" {
		grid, err = parseHorizons(*horizons)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing horizons: %v\n", err)
			os.Exit(2)
		}
	}

	govBonds, err := loadDatedBonds(*govInfo, *govPrices)
	if err != nil {
		logger.Error("loading government bonds", "error", err)
		os.Exit(1)
	}
	corpBonds, err := loadDatedBonds(*corpInfo, *corpPrices)
	if err != nil {
		logger.Error("loading corporate bonds", "error", err)
		os.Exit(1)
	}

	riskFree, err := bootstrap.Build(govBonds)
	if err != nil {
		logger.Error("bootstrapping risk-free curve", "error", err)
		os.Exit(1)
	}
	risky, err := bootstrap.Build(corpBonds)
	if err != nil {
		logger.Error("bootstrapping risky curve", "error", err)
		os.Exit(1)
	}
	logger.Info("bootstrapped curves",
		"risk_free_nodes", riskFree.Len(),
		"risky_nodes", risky.Len())

	extractor, err := creditmetrics.NewExtractor(riskFree, risky, recoveryRate)
	if err != nil {
		logger.Error("building extractor", "error", err)
		os.Exit(1)
	}

	points, err := extractor.DefaultProbs(grid)
	if err != nil {
		logger.Error("extracting default probabilities", "error", err)
		os.Exit(1)
	}

	fmt.Printf("=== Spread-Implied Default Probabilities: %s ===\n", *firm)
	fmt.Printf("Recovery rate: %.4f\n\n", recoveryRate)
	fmt.Printf("%-14s %-12s %-12s %s\n", "Horizon (d)", "Risk-free", "Risky", "Cumulative PD")
	for _, p := range points {
		rf, _ := riskFree.Rate(p.HorizonDays)
		ry, _ := risky.Rate(p.HorizonDays)
		fmt.Printf("%-14d %-12.6f %-12.6f %.10e\n", p.HorizonDays, rf, ry, p.Probability)
	}
}

// parseHorizons parses a comma-separated list of day counts.
func parseHorizons(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	horizons := make([]int, 0, len(parts))
	for _, part := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("horizon %q: %w", part, err)
		}
		horizons = append(horizons, h)
	}
	return horizons, nil
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
