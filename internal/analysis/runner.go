// Package analysis wires market data, curve construction and the two
// credit models into one run per firm, persisting results to storage.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-risk-lab/internal/bootstrap"
	"credit-risk-lab/internal/creditmetrics"
	"credit-risk-lab/internal/curve"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/ingestion"
	"credit-risk-lab/internal/merton"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/storage"
)

// FirmInput is everything a single run needs about one firm.
type FirmInput struct {
	Name      string
	Symbol    string // equity price history key
	SharesOut int64

	// Bond universes the curves are bootstrapped from.
	GovBonds  []domain.DatedBond // sovereign issuer, risk-free curve
	CorpBonds []domain.DatedBond // the firm's issuer, risky curve

	// Balance sheet debt at the valuation horizon.
	DebtFace     float64
	DebtNotional float64

	HorizonDays int // structural model horizon
}

// Runner executes the full analysis for one firm at a time.
type Runner struct {
	prices  storage.PriceHistoryStore
	results storage.ResultStore

	solver       merton.Solver
	recoveryRate float64
	horizonGrid  []int

	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a runner over the given stores.
func NewRunner(prices storage.PriceHistoryStore, results storage.ResultStore, solver merton.Solver, recoveryRate float64, horizonGrid []int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		prices:       prices,
		results:      results,
		solver:       solver,
		recoveryRate: recoveryRate,
		horizonGrid:  horizonGrid,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic timestamps.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// RunResult holds whatever a run produced. A stage failure leaves the
// corresponding field nil and appends to Errors; the other stages still run.
type RunResult struct {
	Merton *domain.MertonResult
	Curve  *domain.DefaultProbabilityCurve
	Errors []error
}

// Failed reports whether any stage failed.
func (r *RunResult) Failed() bool { return len(r.Errors) > 0 }

// Run executes every stage for the firm and persists what succeeded.
func (r *Runner) Run(ctx context.Context, input FirmInput) *RunResult {
	out := &RunResult{}
	computedAt := r.now().UnixMilli()

	logger := r.logger.With("firm", input.Name)
	logger.Info("starting analysis run",
		"gov_bonds", len(input.GovBonds),
		"corp_bonds", len(input.CorpBonds),
		"horizon_days", input.HorizonDays)

	stop := stageTimer("bootstrap")
	riskFree := r.buildCurve(input.GovBonds, "risk-free", logger, out)
	risky := r.buildCurve(input.CorpBonds, "risky", logger, out)
	stop()

	if riskFree != nil {
		stop = stageTimer("merton")
		r.runMerton(ctx, input, riskFree, computedAt, logger, out)
		stop()
	}
	if riskFree != nil && risky != nil {
		stop = stageTimer("creditmetrics")
		r.runCreditMetrics(ctx, input, riskFree, risky, computedAt, logger, out)
		stop()
	}

	if out.Failed() {
		observability.RecordRun("error")
		logger.Warn("analysis run finished with errors", "errors", len(out.Errors))
	} else {
		observability.RecordRun("ok")
		logger.Info("analysis run finished")
	}
	return out
}

// stageTimer returns a func that records the elapsed stage duration.
func stageTimer(stage string) func() {
	start := time.Now()
	return func() { observability.RecordStageDuration(stage, time.Since(start)) }
}

// buildCurve bootstraps a zero curve from a bond universe.
func (r *Runner) buildCurve(bonds []domain.DatedBond, kind string, logger *slog.Logger, out *RunResult) *curve.Curve {
	if len(bonds) == 0 {
		out.Errors = append(out.Errors, fmt.Errorf("no %s bonds supplied", kind))
		return nil
	}
	c, err := bootstrap.Build(bonds)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("bootstrap %s curve: %w", kind, err))
		return nil
	}
	observability.RecordCurve(kind, c.Len())
	logger.Info("bootstrapped curve", "kind", kind, "nodes", c.Len(), "max_period_days", c.MaxPeriod())
	return c
}

// runMerton estimates equity inputs and solves the structural model.
func (r *Runner) runMerton(ctx context.Context, input FirmInput, riskFree domain.RateSource, computedAt int64, logger *slog.Logger, out *RunResult) {
	history, err := r.prices.GetBySymbol(ctx, input.Symbol)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("load price history for %s: %w", input.Symbol, err))
		return
	}

	obs := make([]domain.PriceObservation, len(history))
	for i, o := range history {
		obs[i] = *o
	}
	vol, err := ingestion.AnnualizedVolatility(obs)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("estimate equity volatility for %s: %w", input.Symbol, err))
		return
	}

	last := history[len(history)-1]
	equityValue := float64(input.SharesOut) * last.Price

	snapshot := domain.FirmSnapshot{
		Name:         input.Name,
		EquityValue:  equityValue,
		EquityVol:    vol,
		DebtFace:     input.DebtFace,
		DebtNotional: input.DebtNotional,
		RecoveryRate: r.recoveryRate,
		Rates:        riskFree,
	}

	result, err := r.solver.Solve(snapshot, input.HorizonDays)
	if err != nil && !errors.Is(err, merton.ErrNotConverged) {
		out.Errors = append(out.Errors, fmt.Errorf("merton solve: %w", err))
		return
	}
	observability.RecordSolve(result.Iterations, result.Converged)
	if !result.Converged {
		// Last estimate is still worth persisting for inspection.
		logger.Warn("merton solve did not converge", "iterations", result.Iterations)
		out.Errors = append(out.Errors, fmt.Errorf("merton solve: %w", err))
	}

	result.ComputedAt = computedAt
	if err := r.results.InsertMerton(ctx, &result); err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("persist merton result: %w", err))
		return
	}

	logger.Info("structural model solved",
		"asset_value", result.AssetValue,
		"asset_vol", result.AssetVol,
		"distance_to_default", result.DistanceToDefault,
		"default_probability", result.DefaultProbability,
		"iterations", result.Iterations)
	out.Merton = &result
}

// runCreditMetrics extracts spread-implied default probabilities.
func (r *Runner) runCreditMetrics(ctx context.Context, input FirmInput, riskFree, risky domain.RateSource, computedAt int64, logger *slog.Logger, out *RunResult) {
	extractor, err := creditmetrics.NewExtractor(riskFree, risky, r.recoveryRate)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("build spread extractor: %w", err))
		return
	}

	points, err := extractor.DefaultProbs(r.horizonGrid)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("extract default probabilities: %w", err))
		return
	}

	probCurve := &domain.DefaultProbabilityCurve{
		Firm:         input.Name,
		RecoveryRate: r.recoveryRate,
		Points:       points,
		ComputedAt:   computedAt,
	}
	if err := r.results.InsertDefaultCurve(ctx, probCurve); err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("persist default curve: %w", err))
		return
	}

	logger.Info("spread-implied probabilities extracted", "horizons", len(points))
	out.Curve = probCurve
}
