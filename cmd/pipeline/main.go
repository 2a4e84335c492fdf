// Package main provides the E2E pipeline entry point.
// Executes: ingest market data -> bootstrap curves -> structural and
// reduced-form models -> persist results -> write reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"credit-risk-lab/internal/analysis"
	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/ingestion"
	"credit-risk-lab/internal/merton"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/reporting"
	"credit-risk-lab/internal/storage"
	"credit-risk-lab/internal/storage/clickhouse"
	"credit-risk-lab/internal/storage/memory"
	"credit-risk-lab/internal/storage/migrations"
	"credit-risk-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Configuration file path")
	govInfo := flag.String("gov-info", "", "Government bond static info CSV")
	govPrices := flag.String("gov-prices", "", "Government bond price CSV")
	corpInfo := flag.String("corp-info", "", "Corporate bond static info CSV")
	corpPrices := flag.String("corp-prices", "", "Corporate bond price CSV")
	stockCSV := flag.String("stock", "", "Stock price history CSV")
	firm := flag.String("firm", "", "Firm name")
	symbol := flag.String("symbol", "", "Stock symbol")
	shares := flag.Int64("shares", 0, "Shares outstanding")
	debtFace := flag.Float64("debt-face", 0, "Face value of outstanding debt")
	debtNotional := flag.Float64("debt-notional", 0, "Debt face plus accrued coupon")
	horizon := flag.Int("horizon", 365, "Structural model horizon in days")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	live := flag.Duration("live", 0, "Stream live quotes for this long before the run (0 disables)")
	metricsAddr := flag.String("metrics-addr", "", "Address for the /metrics endpoint (empty disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)

	if *govInfo == "" || *govPrices == "" || *corpInfo == "" || *corpPrices == "" || *stockCSV == "" || *firm == "" || *symbol == "" {
		fmt.Fprintln(os.Stderr, "Required flags: -gov-info, -gov-prices, -corp-info, -corp-prices, -stock, -firm, -symbol")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling pipeline", "signal", sig.String())
		cancel()
	}()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			logger.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	bondStore, prices, results, closeStores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("initializing stores", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	// Stage 1: market data
	if err := ingestStockCSV(ctx, prices, *stockCSV, *symbol, logger); err != nil {
		logger.Error("ingesting stock history", "error", err)
		os.Exit(1)
	}
	if *live > 0 && cfg.Feed.URL != "" {
		if err := streamLiveQuotes(ctx, cfg, prices, *symbol, *live, logger); err != nil {
			logger.Warn("live quote stream ended with error", "error", err)
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
	if err := persistBondTerms(ctx, bondStore, govBonds, corpBonds, logger); err != nil {
		logger.Error("persisting bond terms", "error", err)
		os.Exit(1)
	}

	// Stage 2: models
	solver := merton.Solver{Tolerance: cfg.Model.Tolerance, MaxIterations: cfg.Model.MaxIterations}
	runner := analysis.NewRunner(prices, results, solver, cfg.Model.RecoveryRate, cfg.Model.HorizonDays, logger)

	out := runner.Run(ctx, analysis.FirmInput{
		Name:         *firm,
		Symbol:       *symbol,
		SharesOut:    *shares,
		GovBonds:     govBonds,
		CorpBonds:    corpBonds,
		DebtFace:     *debtFace,
		DebtNotional: *debtNotional,
		HorizonDays:  *horizon,
	})
	for _, e := range out.Errors {
		logger.Error("pipeline stage failed", "error", e)
	}
	if out.Merton == nil && out.Curve == nil {
		logger.Error("no results produced")
		os.Exit(1)
	}

	// Stage 3: reporting
	if err := writeReports(ctx, results, *firm, *outputDir); err != nil {
		logger.Error("writing reports", "error", err)
		os.Exit(1)
	}
	observability.RecordReportGenerated()

	fmt.Println("Pipeline completed:")
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, "REPORT.md"))
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, "merton_results.csv"))
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, "default_curves.csv"))
	if out.Failed() {
		os.Exit(1)
	}
}

// buildStores selects backends from the configured DSNs; empty DSNs get
// in-memory stores. The returned closer shuts down whatever was opened.
func buildStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.BondStore, storage.PriceHistoryStore, storage.ResultStore, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var prices storage.PriceHistoryStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		prices = clickhouse.NewPriceHistoryStore(conn)
		logger.Info("using clickhouse price history store")
	} else {
		prices = memory.NewPriceHistoryStore()
		logger.Info("using in-memory price history store")
	}

	var bonds storage.BondStore
	var results storage.ResultStore
	if cfg.Storage.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			closeAll()
			return nil, nil, nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			closeAll()
			return nil, nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		bonds = postgres.NewBondStore(pool)
		results = postgres.NewResultStore(pool)
		logger.Info("using postgres bond and result stores")
	} else {
		bonds = memory.NewBondStore()
		results = memory.NewResultStore()
		logger.Info("using in-memory bond and result stores")
	}

	return bonds, prices, results, closeAll, nil
}

// persistBondTerms records the static terms of every bond in the run.
// Terms already stored from a previous run are not an error.
func persistBondTerms(ctx context.Context, bonds storage.BondStore, gov, corp []domain.DatedBond, logger *slog.Logger) error {
	stored := 0
	for _, b := range append(append([]domain.DatedBond{}, gov...), corp...) {
		terms := b.Terms
		if err := bonds.Insert(ctx, &terms); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("insert bond %s: %w", terms.ISIN, err)
		}
		stored++
	}
	logger.Info("persisted bond terms", "new", stored, "total", len(gov)+len(corp))
	return nil
}

// ingestStockCSV loads a stock price CSV into the price history store.
// Rerunning over already stored observations is not an error.
func ingestStockCSV(ctx context.Context, prices storage.PriceHistoryStore, path, symbol string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	obs, err := ingestion.ReadStockHistory(f, symbol)
	if err != nil {
		observability.RecordIngestionError("csv")
		return fmt.Errorf("%s: %w", path, err)
	}

	batch := make([]*domain.PriceObservation, len(obs))
	for i := range obs {
		batch[i] = &obs[i]
	}
	if err := prices.InsertBulk(ctx, batch); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Warn("stock history already ingested", "symbol", symbol)
			return nil
		}
		observability.RecordIngestionError("store")
		return fmt.Errorf("store stock history: %w", err)
	}
	observability.RecordQuotesStored(len(batch))
	logger.Info("ingested stock history", "symbol", symbol, "observations", len(batch))
	return nil
}

// streamLiveQuotes subscribes to the quote feed for a bounded window and
// persists whatever arrived.
func streamLiveQuotes(ctx context.Context, cfg *config.Config, prices storage.PriceHistoryStore, symbol string, window time.Duration, logger *slog.Logger) error {
	feedCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	feed := ingestion.NewQuoteFeed(cfg.Feed.URL, &ingestion.QuoteFeedConfig{
		ReadTimeout:  cfg.Feed.ReadTimeout,
		WriteTimeout: cfg.Feed.WriteTimeout,
	})

	quotes := make(chan domain.PriceObservation, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- feed.Stream(feedCtx, []string{symbol}, quotes)
		close(quotes)
	}()

	var batch []*domain.PriceObservation
	for q := range quotes {
		q := q
		observability.RecordQuoteIngested()
		batch = append(batch, &q)
	}
	streamErr := <-errCh

	if len(batch) > 0 {
		if err := prices.InsertBulk(ctx, batch); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordIngestionError("store")
			return fmt.Errorf("store live quotes: %w", err)
		}
		observability.RecordQuotesStored(len(batch))
		logger.Info("ingested live quotes", "symbol", symbol, "quotes", len(batch))
	}

	if streamErr != nil && !errors.Is(streamErr, context.DeadlineExceeded) && !errors.Is(streamErr, context.Canceled) {
		observability.RecordIngestionError("feed")
		return streamErr
	}
	return nil
}

// writeReports renders the stored results into the output directory.
func writeReports(ctx context.Context, results storage.ResultStore, firm, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	report, err := reporting.NewGenerator(results).Generate(ctx, []string{firm})
	if err != nil {
		return err
	}

	files := map[string]string{
		"REPORT.md":          reporting.RenderMarkdown(report),
		"merton_results.csv": reporting.RenderMertonCSV(report.MertonRows),
		"default_curves.csv": reporting.RenderDefaultCurveCSV(report.DefaultCurveRows),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
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
