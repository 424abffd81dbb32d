package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sentinelAnomaliesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sentinel_anomalies_total",
		Help: "Total number of tracked anomalies by lifecycle status.",
	}, []string{"status"})

	sentinelRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	sentinelRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	sentinelIngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_ingests_total",
		Help: "Total anomalies ingested by initial threat level.",
	}, []string{"level"})

	sentinelReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_reports_total",
		Help: "Total agent reports accepted by report threat level.",
	}, []string{"level"})

	sentinelResolutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_resolutions_total",
		Help: "Total anomalies resolved.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		sentinelRequestsTotal.WithLabelValues(method, path, status).Inc()
		sentinelRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordIngest records one successful anomaly ingestion.
func RecordIngest(level string) {
	sentinelIngestsTotal.WithLabelValues(level).Inc()
}

// RecordReport records one accepted agent report.
func RecordReport(level string) {
	sentinelReportsTotal.WithLabelValues(level).Inc()
}

// RecordResolution records one anomaly resolution.
func RecordResolution() {
	sentinelResolutionsTotal.Inc()
}

// SetAnomaliesGauge sets the anomaly count gauge for a given status.
func SetAnomaliesGauge(status string, count float64) {
	sentinelAnomaliesTotal.WithLabelValues(status).Set(count)
}
