package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Credit Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Firms: %d\n\n", r.FirmCount))

	// Structural model
	sb.WriteString("## Structural Model (Merton)\n\n")
	if len(r.MertonRows) > 0 {
		sb.WriteString("| Firm | Horizon (d) | Asset Value | Asset Vol | DD | PD | Converged | Iterations |\n")
		sb.WriteString("|------|-------------|-------------|-----------|----|----|-----------|------------|\n")
		for _, m := range r.MertonRows {
			converged := "yes"
			if !m.Converged {
				converged = "NO"
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4e | %s | %d |\n",
				m.Firm, m.HorizonDays, m.AssetValue, m.AssetVol,
				m.DistanceToDefault, m.DefaultProbability, converged, m.Iterations))
		}
	} else {
		sb.WriteString("No structural model results available.\n")
	}
	sb.WriteString("\n")

	// Reduced form
	sb.WriteString("## Spread-Implied Default Probabilities\n\n")
	if len(r.DefaultCurveRows) > 0 {
		sb.WriteString("| Firm | Recovery | Horizon (d) | Cumulative PD |\n")
		sb.WriteString("|------|----------|-------------|---------------|\n")
		for _, c := range r.DefaultCurveRows {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %d | %.4e |\n",
				c.Firm, c.RecoveryRate, c.HorizonDays, c.Probability))
		}
	} else {
		sb.WriteString("No default probability curves available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
