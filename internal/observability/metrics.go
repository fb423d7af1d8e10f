package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "status_board"

var sizeBuckets = prometheus.ExponentialBuckets(100, 10, 8)

// Metrics holds every collector the board exports. HTTP series live under
// status_board_http_*, probe and page series directly under status_board_*.
type Metrics struct {
	// HTTP surface
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RequestSize       *prometheus.HistogramVec
	ResponseSize      *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge
	HealthStatus      prometheus.Gauge

	// Monitored services
	ServiceUp     *prometheus.GaugeVec
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	PageRefreshes *prometheus.CounterVec

	registry *prometheus.Registry
	handler  http.Handler
}

func httpOpts(name, help string) prometheus.Opts {
	return prometheus.Opts{Namespace: metricsNamespace, Subsystem: "http", Name: name, Help: help}
}

func boardOpts(name, help string) prometheus.Opts {
	return prometheus.Opts{Namespace: metricsNamespace, Name: name, Help: help}
}

func histogram(opts prometheus.Opts, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
		Buckets:   buckets,
	}, labels)
}

func NewMetrics() *Metrics {
	requestLabels := []string{"method", "endpoint", "status_code"}

	return &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts(httpOpts("requests_total", "Requests served by the board")), requestLabels),
		RequestDuration: histogram(
			httpOpts("request_duration_seconds", "Time to serve a request"), prometheus.DefBuckets, requestLabels...),
		RequestSize: histogram(
			httpOpts("request_size_bytes", "Request body size"), sizeBuckets, "method", "endpoint"),
		ResponseSize: histogram(
			httpOpts("response_size_bytes", "Response body size"), sizeBuckets, requestLabels...),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts(httpOpts("active_connections", "Requests currently in flight"))),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts(boardOpts("healthy", "1 while the board is serving, 0 once it is shutting down or not ready"))),

		ServiceUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts(boardOpts("service_up", "Result of the last probe of a service (1 = up, 0 = down)")), []string{"service"}),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts(boardOpts("probes_total", "Service probes by outcome")), []string{"service", "result"}),
		ProbeDuration: histogram(
			boardOpts("probe_duration_seconds", "Time taken by one service probe"), prometheus.DefBuckets, "service"),
		PageRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts(boardOpts("page_refreshes_total", "Status page renders by fetch outcome")), []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestCount, m.RequestDuration, m.RequestSize, m.ResponseSize,
		m.ActiveConnections, m.HealthStatus,
		m.ServiceUp, m.ProbesTotal, m.ProbeDuration, m.PageRefreshes,
	}
}

// Register places the collectors in a fresh private registry, replacing any
// previous one, and points Handler at it.
func (m *Metrics) Register() error {
	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	m.registry = reg
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return nil
}

// Handler serves the private registry, or the default one before Register.
func (m *Metrics) Handler() http.Handler {
	if m.handler == nil {
		return promhttp.Handler()
	}
	return m.handler
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	code := strconv.Itoa(statusCode)
	m.RequestCount.WithLabelValues(method, endpoint, code).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.ResponseSize.WithLabelValues(method, endpoint, code).Observe(float64(responseSize))
}

// RecordProbe records the outcome of one service probe.
func (m *Metrics) RecordProbe(service string, up bool, duration time.Duration) {
	m.ServiceUp.WithLabelValues(service).Set(boolGauge(up))
	m.ProbesTotal.WithLabelValues(service, upDown(up)).Inc()
	m.ProbeDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// ForgetService drops the per-service series of a service no longer monitored.
func (m *Metrics) ForgetService(service string) {
	m.ServiceUp.DeleteLabelValues(service)
	m.ProbeDuration.DeleteLabelValues(service)
	m.ProbesTotal.DeletePartialMatch(prometheus.Labels{"service": service})
}

func (m *Metrics) RecordRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PageRefreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	m.HealthStatus.Set(boolGauge(healthy))
}

func upDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
