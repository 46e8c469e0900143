package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/resolve"
)

const namespace = "termwiki"

// Metrics exports index and resolution activity as Prometheus collectors.
// It implements index.Observer and resolve.Recorder, forwarding
// resolutions to an optional ResolveMetrics.
type Metrics struct {
	// MutationsTotal counts published snapshots by operation.
	MutationsTotal *prometheus.CounterVec

	// MutationDuration measures how long each mutation took.
	MutationDuration *prometheus.HistogramVec

	// ParseFailuresTotal counts documents skipped because they failed to parse.
	ParseFailuresTotal prometheus.Counter

	// ResolveTotal counts resolutions by outcome.
	ResolveTotal *prometheus.CounterVec

	// TermKeys is the number of distinct names in the current snapshot.
	TermKeys prometheus.Gauge

	// Scopes is the number of scopes in the current snapshot.
	Scopes prometheus.Gauge

	// Documents is the number of documents in the current snapshot.
	Documents prometheus.Gauge

	resolve *ResolveMetrics
}

// NewMetrics creates the collectors and registers them on reg.
// agg may be nil.
func NewMetrics(reg prometheus.Registerer, agg *ResolveMetrics) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "mutations_total",
				Help:      "Published index snapshots by operation",
			},
			[]string{"op"},
		),
		MutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "mutation_duration_seconds",
				Help:      "Time taken to build and publish a snapshot",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"op"},
		),
		ParseFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Documents that contributed nothing because they failed to parse",
		}),
		ResolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_total",
				Help:      "Term resolutions by outcome",
			},
			[]string{"outcome"},
		),
		TermKeys: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "term_keys",
			Help:      "Distinct term names in the current snapshot",
		}),
		Scopes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "scopes",
			Help:      "Scopes in the current snapshot",
		}),
		Documents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "documents",
			Help:      "Documents in the current snapshot",
		}),
		resolve: agg,
	}
}

var (
	_ index.Observer   = (*Metrics)(nil)
	_ resolve.Recorder = (*Metrics)(nil)
)

// MutationApplied records a published snapshot.
func (m *Metrics) MutationApplied(op string, elapsed time.Duration, snap *index.Snapshot) {
	m.MutationsTotal.WithLabelValues(op).Inc()
	m.MutationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.TermKeys.Set(float64(len(snap.Terms)))
	m.Scopes.Set(float64(len(snap.Scopes)))
	m.Documents.Set(float64(snap.Documents))
}

// ParseFailed counts a skipped document.
func (m *Metrics) ParseFailed(string, error) {
	m.ParseFailuresTotal.Inc()
}

// RecordResolve counts a resolution.
func (m *Metrics) RecordResolve(name string, outcome resolve.Outcome, elapsed time.Duration) {
	m.ResolveTotal.WithLabelValues(string(outcome)).Inc()
	if m.resolve != nil {
		m.resolve.RecordResolve(name, outcome, elapsed)
	}
}

// Resolve returns the in-memory aggregates, or nil.
func (m *Metrics) Resolve() *ResolveMetrics {
	return m.resolve
}
