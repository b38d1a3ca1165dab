package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

const namespace = "doortwin"

// Metrics holds the twin's Prometheus collectors.
//
// It implements mqtt.Metrics and twin.ActuationRecorder.
type Metrics struct {
	registry *prometheus.Registry

	connectAttempts   prometheus.Counter
	reconnectAttempts prometheus.Counter
	connected         prometheus.Gauge
	publishes         *prometheus.CounterVec
	actuations        *prometheus.CounterVec
	wsClients         prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var _ mqtt.Metrics = (*Metrics)(nil)

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		connectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_connect_attempts_total",
			Help:      "Total number of startup connect attempts",
		}),
		reconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_reconnect_attempts_total",
			Help:      "Total number of reconnects requested before a publish",
		}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while the broker session is live",
		}),
		publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_total",
			Help:      "Total number of publishes by result",
		}, []string{"result"}),
		actuations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuations_total",
			Help:      "Total number of lock/unlock actuations by value and result",
		}, []string{"value", "result"}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ConnectAttempt counts a startup connect attempt.
func (m *Metrics) ConnectAttempt() {
	m.connectAttempts.Inc()
}

// ReconnectAttempt counts a reconnect requested by a publish.
func (m *Metrics) ReconnectAttempt() {
	m.reconnectAttempts.Inc()
}

// ConnectionState sets the connected gauge.
func (m *Metrics) ConnectionState(connected bool) {
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// PublishResult counts a publish outcome.
func (m *Metrics) PublishResult(code mqtt.ResultCode) {
	m.publishes.WithLabelValues(code.Label()).Inc()
}

// WriteActuation counts an actuation outcome.
func (m *Metrics) WriteActuation(value string, code mqtt.ResultCode, _ time.Time) {
	m.actuations.WithLabelValues(value, code.Label()).Inc()
}

// WebSocketClients sets the websocket client gauge.
func (m *Metrics) WebSocketClients(n int) {
	m.wsClients.Set(float64(n))
}

// HTTPRequest records a served request. route is the router pattern, not
// the raw path.
func (m *Metrics) HTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
