package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for configuration loading. It
// satisfies config.Recorder so it can be passed straight into load options.
type Metrics struct {
	config MetricsConfig

	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	lookups      *prometheus.CounterVec
	entries      *prometheus.GaugeVec
	reloads      *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Total number of configuration script loads",
			},
			[]string{"engine", "status"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time spent executing configuration scripts",
				Buckets:   buckets,
			},
			[]string{"engine"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total number of key lookups by result",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "entries",
				Help:      "Number of entries in the most recently loaded configuration",
			},
			[]string{"path"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.loads,
		m.loadDuration,
		m.lookups,
		m.entries,
		m.reloads,
	)

	return m, nil
}

// RecordLoad records a script execution and its duration.
func (m *Metrics) RecordLoad(engine, status string, duration time.Duration) {
	if m.loads == nil {
		return
	}
	m.loads.WithLabelValues(engine, status).Inc()
	m.loadDuration.WithLabelValues(engine).Observe(duration.Seconds())
}

// RecordLookup records the outcome of a key lookup.
func (m *Metrics) RecordLookup(result string) {
	if m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

// SetEntries sets the entry count for a configuration file.
func (m *Metrics) SetEntries(path string, count int) {
	if m.entries == nil {
		return
	}
	m.entries.WithLabelValues(path).Set(float64(count))
}

// RecordReload records a reload attempt.
func (m *Metrics) RecordReload(status string) {
	if m.reloads == nil {
		return
	}
	m.reloads.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// NewMetricsServer returns an HTTP server exposing the metrics endpoint,
// or nil when metrics are disabled or no listen address is configured.
func (m *Metrics) NewMetricsServer() *http.Server {
	if !m.config.Enabled || m.config.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	return &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
