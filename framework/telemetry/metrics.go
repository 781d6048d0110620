package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-laravel/framework/config"
	"github.com/km-arc/go-laravel/framework/multibind"
)

// Metrics records ordered list materializations in Prometheus. It
// implements multibind.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	materializations *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	size             *prometheus.GaugeVec
}

// NewMetrics registers the multibind collectors on a fresh registry.
// Disabled metrics return nil, which callers treat as "no recorder".
func NewMetrics(cfg config.MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		materializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "multibind",
				Name:      "materializations_total",
				Help:      "Ordered list materializations by element type and outcome",
			},
			[]string{"element", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "multibind",
				Name:      "materialize_duration_seconds",
				Help:      "Time spent resolving every contributor of an ordered list",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"element"},
		),
		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "multibind",
				Name:      "list_size",
				Help:      "Number of elements in the last successful materialization",
			},
			[]string{"element"},
		),
	}
	registry.MustRegister(m.materializations, m.duration, m.size)
	return m
}

// ObserveMaterialize implements multibind.Recorder.
func (m *Metrics) ObserveMaterialize(element string, size int, elapsed time.Duration, err error) {
	m.materializations.WithLabelValues(element, outcome(err)).Inc()
	m.duration.WithLabelValues(element).Observe(elapsed.Seconds())
	if err == nil {
		m.size.WithLabelValues(element).Set(float64(size))
	}
}

// Registry exposes the registry for additional collectors and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	var failure *multibind.ResolverFailure
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, multibind.ErrNullElement):
		return "null_element"
	case errors.As(err, &failure):
		return "resolver_failure"
	case errors.Is(err, multibind.ErrConfigurationState):
		return "not_finalized"
	default:
		return "error"
	}
}
