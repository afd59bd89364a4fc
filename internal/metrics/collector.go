package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every exported metric name.
const Namespace = "platformlog"

// Collector handles metrics collection for a logging pipeline. Counters are
// kept both as an in-process snapshot and as Prometheus series on a private
// registry.
type Collector struct {
	// Event counts by level name
	eventsByLevel sync.Map // map[string]*atomic.Uint64

	// Error metrics
	errorCount   uint64
	errorsBySink sync.Map // map[string]*atomic.Uint64

	diagnosticCount uint64

	// Performance metrics
	writeCount     uint64
	totalWriteTime int64 // nanoseconds
	maxWriteTime   int64 // nanoseconds

	registry    *prometheus.Registry
	events      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	diagnostics prometheus.Counter
}

// NewCollector creates a new metrics collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sink",
			Name:      "events_total",
			Help:      "Total number of events written by sink and level.",
		}, []string{"sink", "level"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sink",
			Name:      "failures_total",
			Help:      "Total number of failed sink emits.",
		}, []string{"sink"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sink",
			Name:      "emit_duration_seconds",
			Help:      "Time spent rendering and writing one event.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"sink"}),
		diagnostics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "diagnostics_total",
			Help:      "Total number of messages written to the diagnostic channel.",
		}),
	}
}

// Metrics is a snapshot of collected metrics.
type Metrics struct {
	EventsLogged     map[string]uint64 `json:"events_logged"`
	ErrorCount       uint64            `json:"error_count"`
	ErrorsBySink     map[string]uint64 `json:"errors_by_sink"`
	DiagnosticCount  uint64            `json:"diagnostic_count"`
	WriteCount       uint64            `json:"write_count"`
	AverageWriteTime time.Duration     `json:"average_write_time"`
	MaxWriteTime     time.Duration     `json:"max_write_time"`
}

// Registry returns the Prometheus registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus exposition
// format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// GetMetrics returns current metrics snapshot.
func (c *Collector) GetMetrics() Metrics {
	metrics := Metrics{
		EventsLogged:    make(map[string]uint64),
		ErrorCount:      atomic.LoadUint64(&c.errorCount),
		ErrorsBySink:    make(map[string]uint64),
		DiagnosticCount: atomic.LoadUint64(&c.diagnosticCount),
		WriteCount:      atomic.LoadUint64(&c.writeCount),
	}

	c.eventsByLevel.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			metrics.EventsLogged[key.(string)] = count
		}
		return true
	})

	c.errorsBySink.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			metrics.ErrorsBySink[key.(string)] = count
		}
		return true
	})

	if metrics.WriteCount > 0 {
		metrics.AverageWriteTime = time.Duration(atomic.LoadInt64(&c.totalWriteTime)) / time.Duration(metrics.WriteCount)
	}
	metrics.MaxWriteTime = time.Duration(atomic.LoadInt64(&c.maxWriteTime))

	return metrics
}

// ResetMetrics resets the snapshot counters. Prometheus series are
// monotonic and are not reset.
func (c *Collector) ResetMetrics() {
	c.eventsByLevel.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
	c.errorsBySink.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})

	atomic.StoreUint64(&c.errorCount, 0)
	atomic.StoreUint64(&c.diagnosticCount, 0)
	atomic.StoreUint64(&c.writeCount, 0)
	atomic.StoreInt64(&c.totalWriteTime, 0)
	atomic.StoreInt64(&c.maxWriteTime, 0)
}

// TrackEmit records a successful emit by sink at level.
func (c *Collector) TrackEmit(sink, level string, duration time.Duration) {
	val, _ := c.eventsByLevel.LoadOrStore(level, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)

	atomic.AddUint64(&c.writeCount, 1)
	atomic.AddInt64(&c.totalWriteTime, int64(duration))
	for {
		oldMax := atomic.LoadInt64(&c.maxWriteTime)
		if int64(duration) <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&c.maxWriteTime, oldMax, int64(duration)) {
			break
		}
	}

	c.events.WithLabelValues(sink, level).Inc()
	c.duration.WithLabelValues(sink).Observe(duration.Seconds())
}

// TrackError records a failed emit by sink.
func (c *Collector) TrackError(sink string) {
	atomic.AddUint64(&c.errorCount, 1)
	val, _ := c.errorsBySink.LoadOrStore(sink, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)

	c.failures.WithLabelValues(sink).Inc()
}

// TrackDiagnostic records one diagnostic message.
func (c *Collector) TrackDiagnostic() {
	atomic.AddUint64(&c.diagnosticCount, 1)
	c.diagnostics.Inc()
}
