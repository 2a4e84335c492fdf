// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	QuotesIngested  prometheus.Counter
	QuotesStored    prometheus.Counter
	IngestionErrors *prometheus.CounterVec

	// Analysis metrics
	RunsTotal        *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	SolverIterations prometheus.Histogram
	SolverOutcomes   *prometheus.CounterVec
	CurveNodes       *prometheus.GaugeVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "credit_risk_lab"
	}

	return &Metrics{
		// Ingestion metrics
		QuotesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "quotes_ingested_total",
			Help:      "Total number of price quotes received",
		}),
		QuotesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "quotes_stored_total",
			Help:      "Total number of price quotes stored to database",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by source",
		}, []string{"source"}),

		// Analysis metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "stage_duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		SolverIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "solver_iterations",
			Help:      "Fixed-point iterations per structural model solve",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
		SolverOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "solver_outcomes_total",
			Help:      "Structural model solves by outcome",
		}, []string{"outcome"}),
		CurveNodes: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "curve_nodes",
			Help:      "Number of nodes on the last bootstrapped curve",
		}, []string{"kind"}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordQuoteIngested increments the quotes ingested counter.
func RecordQuoteIngested() {
	DefaultMetrics.QuotesIngested.Inc()
}

// RecordQuotesStored adds to the quotes stored counter.
func RecordQuotesStored(n int) {
	DefaultMetrics.QuotesStored.Add(float64(n))
}

// RecordIngestionError increments the ingestion error counter for a source.
func RecordIngestionError(source string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(source).Inc()
}

// RecordStageDuration observes how long an analysis stage took.
func RecordStageDuration(stage string, d time.Duration) {
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun increments the runs counter with the given status.
func RecordRun(status string) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
}

// RecordSolve records a structural model solve.
func RecordSolve(iterations int, converged bool) {
	DefaultMetrics.SolverIterations.Observe(float64(iterations))
	outcome := "converged"
	if !converged {
		outcome = "not_converged"
	}
	DefaultMetrics.SolverOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCurve records the node count of a bootstrapped curve.
func RecordCurve(kind string, nodes int) {
	DefaultMetrics.CurveNodes.WithLabelValues(kind).Set(float64(nodes))
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
