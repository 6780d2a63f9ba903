// Package metrics exposes the daemon's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the daemon registers.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsApplied *prometheus.CounterVec
	SlotsClosed         prometheus.Counter
	SlotCloseSeconds    prometheus.Histogram
	StateEntries        prometheus.Gauge
	OpenSlotTxs         prometheus.Gauge
	UnitsDestroyed      prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		TransactionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diced",
			Name:      "transactions_applied_total",
			Help:      "Transactions processed, labelled by engine result class.",
		}, []string{"result"}),
		SlotsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diced",
			Name:      "slots_closed_total",
			Help:      "Slots sealed since start.",
		}),
		SlotCloseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diced",
			Name:      "slot_close_seconds",
			Help:      "Time spent sealing a slot, including persistence.",
			Buckets:   prometheus.DefBuckets,
		}),
		StateEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diced",
			Name:      "state_entries",
			Help:      "Entries in the latest closed slot's state.",
		}),
		OpenSlotTxs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diced",
			Name:      "open_slot_transactions",
			Help:      "Transactions waiting in the open slot.",
		}),
		UnitsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diced",
			Name:      "units_destroyed_total",
			Help:      "Native units burned as fees since start.",
		}),
	}

	registry.MustRegister(
		m.TransactionsApplied,
		m.SlotsClosed,
		m.SlotCloseSeconds,
		m.StateEntries,
		m.OpenSlotTxs,
		m.UnitsDestroyed,
	)

	return m
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
