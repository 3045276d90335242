// Package metrics exposes resolution telemetry as Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vidhunt/vidhunt/runner"
)

// Metrics holds the counters of a process. It is a runner.Sink.
type Metrics struct {
	registry         *prometheus.Registry
	attemptsTotal    *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
	embedsTotal      *prometheus.CounterVec
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
}

// New creates and registers the counters on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	attemptsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidhunt_attempts_total",
		Help: "Provider attempts that did not produce a stream, by provider and status",
	}, []string{"provider", "status"})
	resolutionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidhunt_resolutions_total",
		Help: "Finished resolutions by result",
	}, []string{"result"})
	embedsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidhunt_embeds_discovered_total",
		Help: "Embed references discovered, by source",
	}, []string{"source"})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidhunt_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidhunt_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(attemptsTotal, resolutionsTotal, embedsTotal, requestsTotal, errorsTotal)

	return &Metrics{
		registry:         registry,
		attemptsTotal:    attemptsTotal,
		resolutionsTotal: resolutionsTotal,
		embedsTotal:      embedsTotal,
		requestsTotal:    requestsTotal,
		errorsTotal:      errorsTotal,
	}
}

// Emit counts unsuccessful attempts and discovered embeds. Progress updates are ignored.
func (m *Metrics) Emit(e runner.Event) {
	switch e := e.(type) {
	case runner.UpdateEvent:
		if e.Status != runner.StatusPending {
			m.attemptsTotal.WithLabelValues(e.ID, string(e.Status)).Inc()
		}
	case runner.DiscoverEmbedsEvent:
		m.embedsTotal.WithLabelValues(e.SourceID).Add(float64(len(e.Embeds)))
	}
}

// ObserveResolution counts a finished resolution.
func (m *Metrics) ObserveResolution(found bool) {
	result := "exhausted"
	if found {
		result = "resolved"
	}
	m.resolutionsTotal.WithLabelValues(result).Inc()
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves the counters.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
