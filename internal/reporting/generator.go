package reporting

import (
	"context"
	"sort"
	"time"

	"credit-risk-lab/internal/storage"
)

// Generator produces reports from stored results.
type Generator struct {
	resultStore storage.ResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report covering the given firms.
func (g *Generator) Generate(ctx context.Context, firms []string) (*Report, error) {
	var mertonRows []MertonRow
	var curveRows []DefaultCurveRow

	firmSet := make(map[string]struct{})

	for _, firm := range firms {
		if _, seen := firmSet[firm]; seen {
			continue
		}
		firmSet[firm] = struct{}{}

		results, err := g.resultStore.GetMertonByFirm(ctx, firm)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			mertonRows = append(mertonRows, MertonRow{
				Firm:               r.Firm,
				HorizonDays:        r.HorizonDays,
				AssetValue:         r.AssetValue,
				AssetVol:           r.AssetVol,
				DistanceToDefault:  r.DistanceToDefault,
				DefaultProbability: r.DefaultProbability,
				Converged:          r.Converged,
				Iterations:         r.Iterations,
				ComputedAt:         r.ComputedAt,
			})
		}

		curves, err := g.resultStore.GetDefaultCurvesByFirm(ctx, firm)
		if err != nil {
			return nil, err
		}
		for _, c := range curves {
			for _, p := range c.Points {
				curveRows = append(curveRows, DefaultCurveRow{
					Firm:         c.Firm,
					RecoveryRate: c.RecoveryRate,
					HorizonDays:  p.HorizonDays,
					Probability:  p.Probability,
					ComputedAt:   c.ComputedAt,
				})
			}
		}
	}

	sortMertonRows(mertonRows)
	sortDefaultCurveRows(curveRows)

	return &Report{
		GeneratedAt:      g.now(),
		FirmCount:        len(firmSet),
		MertonRows:       mertonRows,
		DefaultCurveRows: curveRows,
	}, nil
}

// sortMertonRows sorts rows by (firm, horizon_days, computed_at).
func sortMertonRows(rows []MertonRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Firm != rows[j].Firm {
			return rows[i].Firm < rows[j].Firm
		}
		if rows[i].HorizonDays != rows[j].HorizonDays {
			return rows[i].HorizonDays < rows[j].HorizonDays
		}
		return rows[i].ComputedAt < rows[j].ComputedAt
	})
}

// sortDefaultCurveRows sorts rows by (firm, computed_at, horizon_days).
func sortDefaultCurveRows(rows []DefaultCurveRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Firm != rows[j].Firm {
			return rows[i].Firm < rows[j].Firm
		}
		if rows[i].ComputedAt != rows[j].ComputedAt {
			return rows[i].ComputedAt < rows[j].ComputedAt
		}
		return rows[i].HorizonDays < rows[j].HorizonDays
	})
}
