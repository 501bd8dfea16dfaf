// Package metrics exposes generation run metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nyos/apr/internal/domain/apr"
)

// Prometheus metric names, without the namespace.
const (
	MetricRunsTotal          = "runs_total"
	MetricRunsInFlight       = "runs_in_flight"
	MetricRunDurationSeconds = "run_duration_seconds"
	MetricRecordsTotal       = "records_generated_total"
	MetricCancellationsTotal = "cancellations_total"
)

// Config holds collector configuration.
type Config struct {
	// Namespace prefixes every metric. Default: "apr"
	Namespace string

	// DurationBuckets are the run duration histogram buckets in seconds.
	// Default: 0.05s up to roughly 100s
	DurationBuckets []float64

	// ProcessMetrics adds the Go runtime and process collectors.
	ProcessMetrics bool
}

// Collector records generation runs. It satisfies generation.Recorder.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Collector struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runsInFlight  *prometheus.GaugeVec
	runDuration   *prometheus.HistogramVec
	recordsTotal  *prometheus.CounterVec
	cancellations *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "apr"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = prometheus.ExponentialBuckets(0.05, 2, 12)
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      MetricRunsTotal,
			Help:      "Generation runs by operation and terminal status.",
		}, []string{"operation", "status"}),
		runsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      MetricRunsInFlight,
			Help:      "Generation runs currently executing.",
		}, []string{"operation"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      MetricRunDurationSeconds,
			Help:      "Wall time of generation runs.",
			Buckets:   cfg.DurationBuckets,
		}, []string{"operation", "status"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      MetricRecordsTotal,
			Help:      "Records emitted into tiles, by category.",
		}, []string{"category"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      MetricCancellationsTotal,
			Help:      "Runs stopped by cancellation or timeout.",
		}, []string{"operation"}),
	}

	c.registry.MustRegister(c.runsTotal, c.runsInFlight, c.runDuration, c.recordsTotal, c.cancellations)
	if cfg.ProcessMetrics {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// RunStarted marks a run as in flight
func (c *Collector) RunStarted(operation string) {
	c.runsInFlight.WithLabelValues(operation).Inc()
}

// RunFinished records the outcome of a run started with RunStarted
func (c *Collector) RunFinished(operation string, status apr.RunStatus, elapsed time.Duration, counts map[apr.Category]int) {
	c.runsInFlight.WithLabelValues(operation).Dec()
	c.runsTotal.WithLabelValues(operation, string(status)).Inc()
	c.runDuration.WithLabelValues(operation, string(status)).Observe(elapsed.Seconds())
	if status == apr.RunStatusCancelled {
		c.cancellations.WithLabelValues(operation).Inc()
	}
	for category, n := range counts {
		if n > 0 {
			c.recordsTotal.WithLabelValues(string(category)).Add(float64(n))
		}
	}
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
