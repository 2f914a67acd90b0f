package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brain"

// Metrics collects the engine and transport metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	turns           *prometheus.CounterVec
	confidence      prometheus.Histogram
	ingestions      *prometheus.CounterVec
	trainerItems    prometheus.Counter
	reprocessed     prometheus.Counter
	flushes         *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// NewMetrics creates a new metrics collector with the Go and process collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Replies by the source that produced them.",
		}, []string{"source"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_confidence",
			Help:      "Confidence of chosen replies.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Ingestion requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		trainerItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trainer_processed_total",
			Help:      "Interactions replayed by the incremental trainer.",
		}),
		reprocessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reprocess_considered_total",
			Help:      "Interactions considered by full reprocess passes.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_flushes_total",
			Help:      "State flushes by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.turns,
		m.confidence,
		m.ingestions,
		m.trainerItems,
		m.reprocessed,
		m.flushes,
		m.rateLimited,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordTurn records a chosen reply and the trainer work done after it.
func (m *Metrics) RecordTurn(source string, confidence float64, trainerProcessed int) {
	m.turns.WithLabelValues(source).Inc()
	m.confidence.Observe(confidence)
	if trainerProcessed > 0 {
		m.trainerItems.Add(float64(trainerProcessed))
	}
}

// RecordIngestion records an ingestion request. An empty reason means it was applied.
func (m *Metrics) RecordIngestion(kind, reason string) {
	outcome := reason
	if outcome == "" {
		outcome = "applied"
	}
	m.ingestions.WithLabelValues(kind, outcome).Inc()
}

// RecordReprocess records a reprocess pass.
func (m *Metrics) RecordReprocess(considered int) {
	m.reprocessed.Add(float64(considered))
}

// RecordFlush records a state flush.
func (m *Metrics) RecordFlush(err error) {
	if err != nil {
		m.flushes.WithLabelValues("error").Inc()
		return
	}
	m.flushes.WithLabelValues("ok").Inc()
}

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}
