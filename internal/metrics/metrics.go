package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status labels of a finished analysis
const (
	StatusOK        = "ok"
	StatusInvalid   = "invalid"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

var (
	// analyses counts finished analysis requests.
	// Labels: status, retention (A_WINS, B_WINS, INCONCLUSIVE or "none" on failure), cached
	analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abverdict",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Analysis requests by status and retention outcome",
	}, []string{"status", "retention", "cached"})

	// analysisDuration measures end-to-end request time.
	// Labels: status
	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "abverdict",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "End-to-end analysis latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	// datasetRows tracks input sizes.
	datasetRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "abverdict",
		Subsystem: "analysis",
		Name:      "dataset_rows",
		Help:      "Rows per analyzed dataset before outlier removal",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
	})

	// bootstrapSkipped counts resamples that drew a single group
	bootstrapSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "abverdict",
		Subsystem: "bootstrap",
		Name:      "skipped_iterations_total",
		Help:      "Bootstrap resamples skipped because one group was not drawn",
	})
)

// Analysis describes one finished request for recording
type Analysis struct {
	Status    string
	Retention string
	Cached    bool
	Seconds   float64
	Rows      int
	Skipped   int
}

// RecordAnalysis updates every analysis metric at once
func RecordAnalysis(a Analysis) {
	retention := a.Retention
	if retention == "" {
		retention = "none"
	}
	cached := "false"
	if a.Cached {
		cached = "true"
	}
	analyses.WithLabelValues(a.Status, retention, cached).Inc()
	analysisDuration.WithLabelValues(a.Status).Observe(a.Seconds)
	if a.Rows > 0 {
		datasetRows.Observe(float64(a.Rows))
	}
	if a.Skipped > 0 && !a.Cached {
		bootstrapSkipped.Add(float64(a.Skipped))
	}
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
