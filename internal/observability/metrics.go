// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Replay metrics
	MatchesReplayed   *prometheus.CounterVec
	NodeDeposits      *prometheus.CounterVec
	EdgeDeposits      *prometheus.CounterVec
	IgnoredLabels     *prometheus.CounterVec
	ReplayStepLatency *prometheus.HistogramVec
	ReplaysCompleted  *prometheus.CounterVec

	// Simulation metrics
	SamplerRuns     prometheus.Counter
	SamplerTrials   prometheus.Counter
	RolloutRuns     prometheus.Counter
	SimulationDur   *prometheus.HistogramVec
	LastSuccessRate *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Server metrics
	ActiveSessions   prometheus.Gauge
	WebSocketClients prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "draft_strategy_lab"
	}

	return &Metrics{
		MatchesReplayed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "matches_replayed_total",
			Help:      "Total number of matches deposited into a graph by mode and outcome",
		}, []string{"mode", "outcome"}),
		NodeDeposits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "node_deposits_total",
			Help:      "Total number of node deposits by mode",
		}, []string{"mode"}),
		EdgeDeposits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "edge_deposits_total",
			Help:      "Total number of edge deposits by mode",
		}, []string{"mode"}),
		IgnoredLabels: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "ignored_labels_total",
			Help:      "Total number of strategy labels skipped during deposit by reason",
		}, []string{"mode", "reason"}),
		ReplayStepLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "step_latency_seconds",
			Help:      "Time spent applying one replay step",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"mode"}),
		ReplaysCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "completed_total",
			Help:      "Total number of replays finished by mode and status",
		}, []string{"mode", "status"}),

		SamplerRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "sampler_runs_total",
			Help:      "Total number of outcome sampler runs",
		}),
		SamplerTrials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "sampler_trials_total",
			Help:      "Total number of outcome sampler trials drawn",
		}),
		RolloutRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "rollout_runs_total",
			Help:      "Total number of graph-walk rollout batches",
		}),
		SimulationDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Simulation wall time in seconds by kind",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		LastSuccessRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_success_rate",
			Help:      "Success rate of the most recent simulation by kind",
		}, []string{"kind"}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"phase"}),
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Number of live analysis sessions",
		}),
		WebSocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "websocket_clients",
			Help:      "Number of connected replay stream clients",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDeposit records one applied match and its node/edge/ignored counts.
func RecordDeposit(mode, outcome string, nodes, edges int, ignoredReasons []string, seconds float64) {
	DefaultMetrics.MatchesReplayed.WithLabelValues(mode, outcome).Inc()
	DefaultMetrics.NodeDeposits.WithLabelValues(mode).Add(float64(nodes))
	DefaultMetrics.EdgeDeposits.WithLabelValues(mode).Add(float64(edges))
	for _, r := range ignoredReasons {
		DefaultMetrics.IgnoredLabels.WithLabelValues(mode, r).Inc()
	}
	DefaultMetrics.ReplayStepLatency.WithLabelValues(mode).Observe(seconds)
}

// RecordReplayFinished records the end of a replay ("completed", "stopped", "failed").
func RecordReplayFinished(mode, status string) {
	DefaultMetrics.ReplaysCompleted.WithLabelValues(mode, status).Inc()
}

// RecordSamplerRun records an outcome sampler run.
func RecordSamplerRun(trials int, successRate, seconds float64) {
	DefaultMetrics.SamplerRuns.Inc()
	DefaultMetrics.SamplerTrials.Add(float64(trials))
	DefaultMetrics.SimulationDur.WithLabelValues("sampler").Observe(seconds)
	DefaultMetrics.LastSuccessRate.WithLabelValues("sampler").Set(successRate)
}

// RecordRolloutRun records a graph-walk rollout batch.
func RecordRolloutRun(successRate, seconds float64) {
	DefaultMetrics.RolloutRuns.Inc()
	DefaultMetrics.SimulationDur.WithLabelValues("rollout").Observe(seconds)
	DefaultMetrics.LastSuccessRate.WithLabelValues("rollout").Set(successRate)
}

// RecordReportGenerated increments the report counter for a format.
func RecordReportGenerated(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordHTTPRequest counts one API request.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}

// SetActiveSessions sets the live session gauge.
func SetActiveSessions(n int) {
	DefaultMetrics.ActiveSessions.Set(float64(n))
}

// WebSocketConnected adjusts the stream client gauge by delta (+1 / -1).
func WebSocketConnected(delta int) {
	DefaultMetrics.WebSocketClients.Add(float64(delta))
}
