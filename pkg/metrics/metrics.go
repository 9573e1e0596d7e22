package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	Transactions      *prometheus.CounterVec
	ListenerFailures  *prometheus.CounterVec
	Invalidations     *prometheus.CounterVec
	EnrichmentLookups *prometheus.CounterVec
	OutboxDispatched  *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uow",
			Name:      "transactions_total",
			Help:      "Unit of work scopes by outcome.",
		}, []string{"outcome"}),
		ListenerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eventbus",
			Name:      "listener_failures_total",
			Help:      "Event listener invocations that returned an error or panicked.",
		}, []string{"listener", "event"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Cache invalidation runs by entity and result.",
		}, []string{"entity", "result"}),
		EnrichmentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "enrichment_lookups_total",
			Help:      "Secondary key lookups made during invalidation, by result.",
		}, []string{"result"}),
		OutboxDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "dispatched_total",
			Help:      "Outbox rows relayed to the broker, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.Requests, m.LatencyMS,
		m.Transactions, m.ListenerFailures,
		m.Invalidations, m.EnrichmentLookups,
		m.OutboxDispatched,
	)
	return m
}

// NewNop returns metrics bound to a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
