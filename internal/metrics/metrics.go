// Package metrics holds the Prometheus instruments shared by codecs and the
// publisher. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldpub"

type Metrics struct {
	publishes *prometheus.CounterVec
	retrieves *prometheus.CounterVec
	errors    *prometheus.CounterVec
	leaves    prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		publishes: createCounterVec("publish_total", "Values published, by strategy.", []string{"strategy"}),
		retrieves: createCounterVec("retrieve_total", "Values retrieved, by strategy.", []string{"strategy"}),
		errors:    createCounterVec("errors_total", "Failed operations, by operation.", []string{"op"}),
		leaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leaves",
			Help:      "Primitive leaves currently bound to remote keys.",
		}),
	}

	reg.MustRegister(m.publishes, m.retrieves, m.errors, m.leaves)

	return m
}

// NewRegistry returns a registry with the default collectors registered when
// cfg asks for them.
func NewRegistry(cfg Config) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	if cfg.EnableDefaultCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return registry
}

// Server returns an HTTP server exposing registry at /metrics.
func Server(cfg Config, registry *prometheus.Registry) *http.Server {
	addr := cfg.Address
	if addr == "" {
		addr = DefaultAddress
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{Addr: addr, Handler: mux}
}

func (m *Metrics) Published(strategy string) {
	if m != nil {
		m.publishes.WithLabelValues(strategy).Inc()
	}
}

func (m *Metrics) Retrieved(strategy string) {
	if m != nil {
		m.retrieves.WithLabelValues(strategy).Inc()
	}
}

func (m *Metrics) Failed(op string) {
	if m != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}

// LeavesBound adjusts the bound-leaf gauge by delta.
func (m *Metrics) LeavesBound(delta int) {
	if m != nil {
		m.leaves.Add(float64(delta))
	}
}

func createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
