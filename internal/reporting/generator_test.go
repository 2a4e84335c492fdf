package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage/memory"
)

func seedResults(t *testing.T, store *memory.ResultStore) {
	t.Helper()
	ctx := context.Background()

	results := []*domain.MertonResult{
		{Firm: "goodrich", HorizonDays: 730, AssetValue: 1510.2, AssetVol: 0.49, DistanceToDefault: 8.1, DefaultProbability: 2e-16, Converged: true, Iterations: 14, ComputedAt: 1700000000000},
		{Firm: "goodrich", HorizonDays: 365, AssetValue: 1504.6, AssetVol: 0.494, DistanceToDefault: 11.9, DefaultProbability: 1e-30, Converged: true, Iterations: 12, ComputedAt: 1700000000000},
		{Firm: "acme", HorizonDays: 365, AssetValue: 210.0, AssetVol: 0.31, DistanceToDefault: 2.4, DefaultProbability: 0.0082, Converged: true, Iterations: 9, ComputedAt: 1700000000000},
	}
	for _, r := range results {
		require.NoError(t, store.InsertMerton(ctx, r))
	}

	curve := &domain.DefaultProbabilityCurve{
		Firm:         "goodrich",
		RecoveryRate: 0.5,
		ComputedAt:   1700000000000,
		Points: []domain.DefaultProbabilityPoint{
			{HorizonDays: 365, Probability: 0.012},
			{HorizonDays: 730, Probability: 0.025},
		},
	}
	require.NoError(t, store.InsertDefaultCurve(ctx, curve))
}

func TestGenerator_Generate(t *testing.T) {
	store := memory.NewResultStore()
	seedResults(t, store)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(store).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(context.Background(), []string{"goodrich", "acme"})
	require.NoError(t, err)

	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Equal(t, 2, report.FirmCount)

	// Sorted by firm then horizon
	require.Len(t, report.MertonRows, 3)
	assert.Equal(t, "acme", report.MertonRows[0].Firm)
	assert.Equal(t, "goodrich", report.MertonRows[1].Firm)
	assert.Equal(t, 365, report.MertonRows[1].HorizonDays)
	assert.Equal(t, "goodrich", report.MertonRows[2].Firm)
	assert.Equal(t, 730, report.MertonRows[2].HorizonDays)

	require.Len(t, report.DefaultCurveRows, 2)
	assert.Equal(t, 365, report.DefaultCurveRows[0].HorizonDays)
	assert.Equal(t, 730, report.DefaultCurveRows[1].HorizonDays)
}

func TestGenerator_GenerateDeduplicatesFirms(t *testing.T) {
	store := memory.NewResultStore()
	seedResults(t, store)

	gen := NewGenerator(store)
	report, err := gen.Generate(context.Background(), []string{"goodrich", "goodrich"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FirmCount)
	assert.Len(t, report.MertonRows, 2)
}

func TestGenerator_GenerateDeterministic(t *testing.T) {
	store := memory.NewResultStore()
	seedResults(t, store)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(store).WithClock(func() time.Time { return fixed })

	first, err := gen.Generate(context.Background(), []string{"goodrich", "acme"})
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), []string{"goodrich", "acme"})
	require.NoError(t, err)

	assert.Equal(t, RenderMarkdown(first), RenderMarkdown(second))
	assert.Equal(t, RenderMertonCSV(first.MertonRows), RenderMertonCSV(second.MertonRows))
}

func TestRenderMertonCSV(t *testing.T) {
	rows := []MertonRow{
		{Firm: "acme", HorizonDays: 365, AssetValue: 210, AssetVol: 0.31, DistanceToDefault: 2.4, DefaultProbability: 0.0082, Converged: true, Iterations: 9, ComputedAt: 1700000000000},
	}

	out := RenderMertonCSV(rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "firm,horizon_days,asset_value,asset_vol,distance_to_default,default_probability,converged,iterations,computed_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "acme,365,"))
	assert.Contains(t, lines[1], "true")
}

func TestRenderDefaultCurveCSV(t *testing.T) {
	rows := []DefaultCurveRow{
		{Firm: "acme", RecoveryRate: 0.5, HorizonDays: 365, Probability: 0.012, ComputedAt: 1700000000000},
	}

	out := RenderDefaultCurveCSV(rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "firm,recovery_rate,horizon_days,probability,computed_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "acme,0.5000,365,"))
}

func TestRenderMarkdown(t *testing.T) {
	report := &Report{
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		FirmCount:   1,
		MertonRows: []MertonRow{
			{Firm: "acme", HorizonDays: 365, AssetValue: 210, AssetVol: 0.31, DistanceToDefault: 2.4, DefaultProbability: 0.0082, Converged: false, Iterations: 200},
		},
	}

	out := RenderMarkdown(report)
	assert.Contains(t, out, "# Credit Risk Report")
	assert.Contains(t, out, "Generated: 2024-03-01T12:00:00Z")
	assert.Contains(t, out, "| acme | 365 |")
	assert.Contains(t, out, "| NO |")
	assert.Contains(t, out, "No default probability curves available.")
}

func TestRenderMarkdownEmpty(t *testing.T) {
	report := &Report{GeneratedAt: time.Unix(0, 0).UTC()}
	out := RenderMarkdown(report)
	assert.Contains(t, out, "No structural model results available.")
	assert.Contains(t, out, "No default probability curves available.")
}
