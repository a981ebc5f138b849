// Package metrics owns the Prometheus collectors exposed on /metrics.
//
// Every method is safe to call on a nil *Metrics, so packages can take a
// *Metrics dependency without tests having to build one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booping"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	boopsSent       *prometheus.CounterVec
	badgesAwarded   *prometheus.CounterVec
	liveConnections *prometheus.GaugeVec
	eventsDropped   *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		boopsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boops_sent_total",
			Help:      "Boops created, by the channel they arrived on.",
		}, []string{"channel"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Badges awarded, by badge name.",
		}, []string{"badge"}),
		liveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connections",
			Help:      "Open live connections.",
		}, []string{"authenticated"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "events_dropped_total",
			Help:      "Outbound live events dropped because a connection could not keep up.",
		}, []string{"event", "reason"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"limiter"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.boopsSent,
		m.badgesAwarded,
		m.liveConnections,
		m.eventsDropped,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) BoopSent(channel string) {
	if m == nil {
		return
	}
	m.boopsSent.WithLabelValues(channel).Inc()
}

func (m *Metrics) BadgeAwarded(name string) {
	if m == nil {
		return
	}
	m.badgesAwarded.WithLabelValues(name).Inc()
}

func (m *Metrics) ConnectionOpened(authenticated bool) {
	if m == nil {
		return
	}
	m.liveConnections.WithLabelValues(strconv.FormatBool(authenticated)).Inc()
}

func (m *Metrics) ConnectionClosed(authenticated bool) {
	if m == nil {
		return
	}
	m.liveConnections.WithLabelValues(strconv.FormatBool(authenticated)).Dec()
}

func (m *Metrics) EventDropped(event, reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(event, reason).Inc()
}

func (m *Metrics) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(limiter).Inc()
}
