// Package metrics exposes Prometheus collectors for the scouting service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scoutSessionsTotal         *prometheus.CounterVec
	scoutPagesTotal            *prometheus.CounterVec
	scoutPageDurationSeconds   *prometheus.HistogramVec
	scoutActiveSessions        prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scoutSessionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_sessions_total",
				Help: "Total number of finished scouting sessions, labeled by status.",
			},
			[]string{"status"},
		)

		scoutPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_pages_total",
				Help: "Total number of pages visited, labeled by page type and status.",
			},
			[]string{"page_type", "status"},
		)

		scoutPageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_page_duration_seconds",
				Help:    "Histogram of per-page processing times, labeled by page type.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"page_type"},
		)

		scoutActiveSessions = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scout_active_sessions",
				Help: "Number of sessions currently crawling.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSession increments the finished-session counter for the status.
func ObserveSession(status string) {
	scoutSessionsTotal.WithLabelValues(status).Inc()
}

// ObservePage records one visited page and its processing time.
func ObservePage(pageType, status string, duration time.Duration) {
	scoutPagesTotal.WithLabelValues(pageType, status).Inc()
	scoutPageDurationSeconds.WithLabelValues(pageType).Observe(duration.Seconds())
}

// IncActiveSessions increments the active sessions gauge.
func IncActiveSessions() {
	scoutActiveSessions.Inc()
}

// DecActiveSessions decrements the active sessions gauge.
func DecActiveSessions() {
	scoutActiveSessions.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
