package reporting

import (
	"fmt"
	"strings"
)

// RenderMertonCSV renders structural-model rows as a CSV string.
func RenderMertonCSV(rows []MertonRow) string {
	var sb strings.Builder

	sb.WriteString("firm,horizon_days,asset_value,asset_vol,distance_to_default,default_probability,converged,iterations,computed_at\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.6f,%.6f,%.16e,%t,%d,%d\n",
			r.Firm,
			r.HorizonDays,
			r.AssetValue,
			r.AssetVol,
			r.DistanceToDefault,
			r.DefaultProbability,
			r.Converged,
			r.Iterations,
			r.ComputedAt,
		))
	}

	return sb.String()
}

// RenderDefaultCurveCSV renders reduced-form rows as a CSV string.
func RenderDefaultCurveCSV(rows []DefaultCurveRow) string {
	var sb strings.Builder

	sb.WriteString("firm,recovery_rate,horizon_days,probability,computed_at\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.4f,%d,%.16e,%d\n",
			r.Firm,
			r.RecoveryRate,
			r.HorizonDays,
			r.Probability,
			r.ComputedAt,
		))
	}

	return sb.String()
}
