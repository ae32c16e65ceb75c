// Package prometheus owns the metric registry of molexplorer. Components take
// the small Counter/Gauge/Histogram interfaces so they can run with no-op
// metrics when exposition is disabled.
package prometheus

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// MetricsCollector registers metrics on a private registry and exposes them.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
	MustRegister(cs ...prometheus.Collector)
	Unregister(c prometheus.Collector) bool
}

type (
	Counter   interface{ Inc(); Add(delta float64) }
	Gauge     interface{ Set(v float64); Inc(); Dec() }
	Histogram interface{ Observe(v float64) }

	CounterVec   interface{ WithLabelValues(lvs ...string) Counter }
	GaugeVec     interface{ WithLabelValues(lvs ...string) Gauge }
	HistogramVec interface{ WithLabelValues(lvs ...string) Histogram }
)

// CollectorConfig holds configuration for the collector. Every metric name
// is prefixed with Namespace and Subsystem.
type CollectorConfig struct {
	Namespace               string
	Subsystem               string
	EnableProcessMetrics    bool
	EnableGoMetrics         bool
	DefaultHistogramBuckets []float64
	ConstLabels             map[string]string
}

type registryCollector struct {
	cfg      CollectorConfig
	registry *prometheus.Registry
	log      logging.Logger

	mu   sync.Mutex
	vecs map[string]prometheus.Collector // by fully qualified name
}

// NewMetricsCollector creates a collector backed by a fresh registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.DefaultHistogramBuckets == nil {
		cfg.DefaultHistogramBuckets = prometheus.DefBuckets
	}

	reg := prometheus.NewRegistry()
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	return &registryCollector{
		cfg:      cfg,
		registry: reg,
		log:      logger.Named("metrics"),
		vecs:     map[string]prometheus.Collector{},
	}, nil
}

func (c *registryCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *registryCollector) MustRegister(cs ...prometheus.Collector) { c.registry.MustRegister(cs...) }

func (c *registryCollector) Unregister(col prometheus.Collector) bool {
	return c.registry.Unregister(col)
}

func (c *registryCollector) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   c.cfg.Namespace,
		Subsystem:   c.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.cfg.ConstLabels,
	}
}

// register stores fresh under its qualified name, or hands back the vector
// registered earlier under that name. ok is false when the earlier vector has
// another type or the registry refuses fresh.
func register[V prometheus.Collector](c *registryCollector, kind, name string, fresh V) (vec V, ok bool) {
	fq := prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, found := c.vecs[fq]; found {
		if vec, ok = prev.(V); !ok {
			c.log.Warn("metric type mismatch", logging.String("name", fq), logging.String("type", kind))
		}
		return vec, ok
	}
	if err := c.registry.Register(fresh); err != nil {
		c.log.Error("metric registration failed", logging.String("name", fq), logging.String("type", kind), logging.Err(err))
		return vec, false
	}
	c.vecs[fq] = fresh
	return fresh, true
}

func (c *registryCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	fresh := prometheus.NewCounterVec(prometheus.CounterOpts(c.opts(name, help)), labels)
	if vec, ok := register(c, "counter", name, fresh); ok {
		return counterVec{vec}
	}
	return noopCounterVec{}
}

func (c *registryCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	fresh := prometheus.NewGaugeVec(prometheus.GaugeOpts(c.opts(name, help)), labels)
	if vec, ok := register(c, "gauge", name, fresh); ok {
		return gaugeVec{vec}
	}
	return noopGaugeVec{}
}

// RegisterHistogram uses the configured default buckets when buckets is nil.
func (c *registryCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.cfg.DefaultHistogramBuckets
	}
	o := c.opts(name, help)
	fresh := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     buckets,
	}, labels)
	if vec, ok := register(c, "histogram", name, fresh); ok {
		return histogramVec{vec}
	}
	return noopHistogramVec{}
}

type counterVec struct{ *prometheus.CounterVec }
type gaugeVec struct{ *prometheus.GaugeVec }
type histogramVec struct{ *prometheus.HistogramVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.CounterVec.WithLabelValues(lvs...) }
func (v gaugeVec) WithLabelValues(lvs ...string) Gauge     { return v.GaugeVec.WithLabelValues(lvs...) }
func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

type noopCounterVec struct{}
type noopGaugeVec struct{}
type noopHistogramVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter     { return noopMetric{} }
func (noopGaugeVec) WithLabelValues(...string) Gauge         { return noopMetric{} }
func (noopHistogramVec) WithLabelValues(...string) Histogram { return noopMetric{} }

type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Dec()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Set(float64)     {}
func (noopMetric) Observe(float64) {}

// Timer records the time since its creation into a histogram. A nil
// histogram only measures.
type Timer struct {
	h     Histogram
	begun time.Time
}

func NewTimer(h Histogram) *Timer { return &Timer{h: h, begun: time.Now()} }

func (t *Timer) ObserveDuration() time.Duration {
	elapsed := time.Since(t.begun)
	if t.h != nil {
		t.h.Observe(elapsed.Seconds())
	}
	return elapsed
}
