package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	schemaFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_schema_fetch_total",
			Help: "Total number of schema introspection calls.",
		},
		[]string{"outcome"},
	)
	translateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_translate_requests_total",
			Help: "Total number of translation requests by provider.",
		},
		[]string{"provider", "outcome"},
	)
	translateDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_translate_duration_seconds",
			Help:    "Model translation latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_query_executions_total",
			Help: "Total number of candidate query executions.",
		},
		[]string{"outcome"},
	)
	queryExecutionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_execution_seconds",
			Help:    "Candidate query execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows_returned",
			Help:    "Rows returned by successful query executions.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_exports_total",
			Help: "Total number of result exports by format.",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(
		schemaFetchTotal,
		translateRequestsTotal,
		translateDurationSeconds,
		queryExecutionsTotal,
		queryExecutionSeconds,
		queryRowsReturned,
		exportsTotal,
	)
}

func ObserveSchemaFetch(ok bool) {
	schemaFetchTotal.WithLabelValues(outcomeLabel(ok)).Inc()
}

func ObserveTranslation(provider string, ok bool, elapsed time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	translateRequestsTotal.WithLabelValues(provider, outcomeLabel(ok)).Inc()
	translateDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveExecution(ok bool, elapsed time.Duration, rows int) {
	queryExecutionsTotal.WithLabelValues(outcomeLabel(ok)).Inc()
	queryExecutionSeconds.Observe(elapsed.Seconds())
	if ok {
		queryRowsReturned.Observe(float64(rows))
	}
}

func ObserveExport(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
