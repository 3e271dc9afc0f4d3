// Package metrics exposes Prometheus collectors for the API and job workers.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ReportsGeneratedTotal  *prometheus.CounterVec
	AnomaliesDetectedTotal *prometheus.CounterVec

	JobsProcessedTotal *prometheus.CounterVec
}

// New creates and registers the collectors on the default registry.
// Collectors are registered once per process; later calls return the same instance.
//
// Metrics:
//   - finsight_http_requests_total{method,route,status}
//   - finsight_http_request_duration_seconds{method,route}
//   - finsight_reports_generated_total{result}
//   - finsight_anomalies_detected_total{type}
//   - finsight_jobs_processed_total{type,status}
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finsight_http_requests_total",
					Help: "Total number of HTTP requests handled",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "finsight_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			ReportsGeneratedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finsight_reports_generated_total",
					Help: "Total number of insight reports generated",
				},
				[]string{"result"}, // "ok" or "error"
			),
			AnomaliesDetectedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finsight_anomalies_detected_total",
					Help: "Total number of anomaly records produced",
				},
				[]string{"type"},
			),
			JobsProcessedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finsight_jobs_processed_total",
					Help: "Total number of background jobs processed",
				},
				[]string{"type", "status"},
			),
		}
	})
	return globalMetrics
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ReportGenerated records the outcome of one insights report.
func (m *Metrics) ReportGenerated(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ReportsGeneratedTotal.WithLabelValues(result).Inc()
}

// AnomaliesDetected adds n anomalies of the given type.
func (m *Metrics) AnomaliesDetected(anomalyType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AnomaliesDetectedTotal.WithLabelValues(anomalyType).Add(float64(n))
}

// JobProcessed records a job reaching a terminal or retry state.
func (m *Metrics) JobProcessed(jobType, status string) {
	if m == nil {
		return
	}
	m.JobsProcessedTotal.WithLabelValues(jobType, status).Inc()
}
