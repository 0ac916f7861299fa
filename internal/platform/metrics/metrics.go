package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the installation server.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	mediaRequestsTotal prometheus.Counter
	rangeRequestsTotal prometheus.Counter
	invalidRangesTotal prometheus.Counter
	notModifiedTotal   prometheus.Counter
	bytesSentTotal     prometheus.Counter
	relayedTotal       prometheus.Counter
	controlPeers       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the server.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	mediaRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_media_requests_total",
		Help: "Total number of media asset requests served",
	})
	rangeRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_media_range_requests_total",
		Help: "Total number of media requests carrying a Range header",
	})
	invalidRangesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_media_invalid_ranges_total",
		Help: "Total number of unsatisfiable Range headers answered with 416",
	})
	notModifiedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_media_not_modified_total",
		Help: "Total number of conditional media requests answered with 304",
	})
	bytesSentTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_media_bytes_sent_total",
		Help: "Total number of media body bytes written to clients",
	})
	relayedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "showloop_control_messages_relayed_total",
		Help: "Total number of control messages relayed between peers",
	})
	controlPeers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "showloop_control_peers",
		Help: "Number of currently connected control peers",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		mediaRequestsTotal,
		rangeRequestsTotal,
		invalidRangesTotal,
		notModifiedTotal,
		bytesSentTotal,
		relayedTotal,
		controlPeers,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		errorsTotal:        errorsTotal,
		mediaRequestsTotal: mediaRequestsTotal,
		rangeRequestsTotal: rangeRequestsTotal,
		invalidRangesTotal: invalidRangesTotal,
		notModifiedTotal:   notModifiedTotal,
		bytesSentTotal:     bytesSentTotal,
		relayedTotal:       relayedTotal,
		controlPeers:       controlPeers,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncMediaRequests increments the served media request counter.
func (m *Metrics) IncMediaRequests() {
	m.mediaRequestsTotal.Inc()
}

// IncRangeRequests increments the range request counter.
func (m *Metrics) IncRangeRequests() {
	m.rangeRequestsTotal.Inc()
}

// IncInvalidRanges increments the unsatisfiable range counter.
func (m *Metrics) IncInvalidRanges() {
	m.invalidRangesTotal.Inc()
}

// IncNotModified increments the 304 counter.
func (m *Metrics) IncNotModified() {
	m.notModifiedTotal.Inc()
}

// AddBytesSent adds n to the media bytes counter.
func (m *Metrics) AddBytesSent(n int64) {
	m.bytesSentTotal.Add(float64(n))
}

// IncRelayedMessages increments the control relay counter.
func (m *Metrics) IncRelayedMessages() {
	m.relayedTotal.Inc()
}

// SetControlPeers sets the connected control peer gauge.
func (m *Metrics) SetControlPeers(n int) {
	m.controlPeers.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. connected peers).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
