package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Install pipeline metrics.
//
//nolint:gochecknoglobals // Prometheus collectors are process-wide by nature.
var (
	InstallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_installs_total",
			Help: "Total install attempts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	InstallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "server_keeper_install_duration_seconds",
			Help:    "Time to resolve, download and verify an artifact",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"channel"},
	)

	DownloadedBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_downloaded_bytes_total",
			Help: "Total artifact bytes written to disk",
		},
		[]string{"channel"},
	)

	DigestChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_digest_checks_total",
			Help: "Artifact digest verifications by result (match, mismatch, skipped)",
		},
		[]string{"result"},
	)
)

// Managed process metrics.
//
//nolint:gochecknoglobals // Prometheus collectors are process-wide by nature.
var (
	ProcessRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "server_keeper_process_running",
			Help: "1 while the managed server process is running",
		},
	)

	ProcessStartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_process_starts_total",
			Help: "Start requests by result",
		},
		[]string{"result"},
	)

	ProcessStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_process_stops_total",
			Help: "Stop requests by result",
		},
		[]string{"result"},
	)

	ProcessExitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "server_keeper_process_exits_total",
			Help: "Exits of the managed server observed by the supervisor",
		},
	)
)

// HTTP API metrics.
//
//nolint:gochecknoglobals // Prometheus collectors are process-wide by nature.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_keeper_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "server_keeper_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() { //nolint:gochecknoinits // Collectors must be registered before the first scrape.
	prometheus.MustRegister(
		InstallsTotal,
		InstallDuration,
		DownloadedBytesTotal,
		DigestChecksTotal,
		ProcessRunning,
		ProcessStartsTotal,
		ProcessStopsTotal,
		ProcessExitsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetProcessRunning mirrors the managed process state into the gauge.
func SetProcessRunning(running bool) {
	if running {
		ProcessRunning.Set(1)
		return
	}

	ProcessRunning.Set(0)
}

// EchoMiddleware returns Echo middleware that instruments HTTP requests.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status

			var he *echo.HTTPError
			if err != nil && errors.As(err, &he) {
				status = he.Code
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
