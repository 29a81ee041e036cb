package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindful_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindful_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"route", "method"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindful_http_rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter",
		},
	)

	// Analytics
	analyticsRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindful_analytics_computations_total",
			Help: "Analytics computations by calculator",
		},
		[]string{"calculator"},
	)

	analyticsTrades = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindful_analytics_input_trades",
			Help:    "Number of trades fed into one computation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"calculator"},
	)

	// CSV import
	importRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindful_csv_import_rows_total",
			Help: "CSV rows processed by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// Weekly reports
	reportsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindful_weekly_reports_total",
			Help: "Weekly report deliveries by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(route, method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func RecordComputation(calculator string, trades int) {
	analyticsRuns.WithLabelValues(calculator).Inc()
	analyticsTrades.WithLabelValues(calculator).Observe(float64(trades))
}

// RecordImportRows counts rows for stage "preview" or "import".
func RecordImportRows(stage string, valid, invalid int) {
	importRows.WithLabelValues(stage, "valid").Add(float64(valid))
	importRows.WithLabelValues(stage, "invalid").Add(float64(invalid))
}

func RecordWeeklyReport(ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	reportsSent.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
