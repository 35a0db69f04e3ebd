package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// MetricsCollector handles Prometheus metrics collection.
// A nil *MetricsCollector is valid and records nothing.
type MetricsCollector struct {
	serviceName string
	gatherer    prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	alertsTotal         *prometheus.CounterVec
	evaluationsTotal    *prometheus.CounterVec
	dispatchTotal       *prometheus.CounterVec
	parameterUpdates    *prometheus.CounterVec
}

// NewMetricsCollector creates the service metrics and registers them with reg
func NewMetricsCollector(serviceName string, reg *prometheus.Registry) *MetricsCollector {
	m := &MetricsCollector{
		serviceName: serviceName,
		gatherer:    reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code", "service"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "service"},
		),

		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinical_alerts_total",
				Help: "Total number of alerts produced by the rule engine",
			},
			[]string{"level", "service"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_evaluations_total",
				Help: "Total number of alert evaluations",
			},
			[]string{"critical", "service"},
		),

		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_dispatch_total",
				Help: "Total number of notification dispatch attempts by outcome",
			},
			[]string{"reason", "generated", "service"},
		),

		parameterUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threshold_parameter_updates_total",
				Help: "Total number of threshold parameter updates",
			},
			[]string{"service"},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.alertsTotal,
		m.evaluationsTotal,
		m.dispatchTotal,
		m.parameterUpdates,
	)

	return m
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordAlerts records one evaluation and the levels of the alerts it produced
func (m *MetricsCollector) RecordAlerts(alerts []types.Alert) {
	if m == nil {
		return
	}
	critical := false
	for _, a := range alerts {
		m.alertsTotal.WithLabelValues(string(a.Level), m.serviceName).Inc()
		if a.Level == types.AlertLevelRed {
			critical = true
		}
	}
	m.evaluationsTotal.WithLabelValues(strconv.FormatBool(critical), m.serviceName).Inc()
}

// RecordDispatch records a notification dispatch outcome
func (m *MetricsCollector) RecordDispatch(reason string, generated bool) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(reason, strconv.FormatBool(generated), m.serviceName).Inc()
}

// RecordParameterUpdate records a threshold parameter update
func (m *MetricsCollector) RecordParameterUpdate() {
	if m == nil {
		return
	}
	m.parameterUpdates.WithLabelValues(m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
