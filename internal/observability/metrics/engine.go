// Package metrics provides Prometheus metric collectors for the framix
// pipeline, one struct per domain, registered against an injected registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics contains Prometheus metrics for the pipeline runtime:
// per-component processing activity, lifecycle state and the buffer pools
// behind every output port.
type EngineMetrics struct {
	registry *prometheus.Registry

	framesProcessed    *prometheus.CounterVec
	framesDropped      *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
	componentState     *prometheus.GaugeVec

	poolOutstanding *prometheus.GaugeVec
	poolFree        *prometheus.GaugeVec
	poolHits        *prometheus.GaugeVec
	poolMisses      *prometheus.GaugeVec

	collectors []prometheus.Collector
}

// NewEngineMetrics creates and registers new engine metrics.
func NewEngineMetrics(registry *prometheus.Registry) (*EngineMetrics, error) {
	m := &EngineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EngineMetrics) initMetrics() {
	m.framesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framix_frames_processed_total",
			Help: "Total number of work iterations completed per component",
		},
		[]string{"component_type", "instance"},
	)

	m.framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framix_frames_dropped_total",
			Help: "Total number of frames dropped, by reason",
		},
		[]string{"instance", "reason"},
	)

	m.processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framix_processing_duration_seconds",
			Help:    "Time spent in a component's transform per iteration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		},
		[]string{"component_type", "instance"},
	)

	m.componentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_component_state",
			Help: "Lifecycle state of a component (0=created .. 4=stopped)",
		},
		[]string{"instance", "state"},
	)

	m.poolOutstanding = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_pool_outstanding_frames",
			Help: "Frames and handles in flight from an output port's pool",
		},
		[]string{"instance", "port"},
	)

	m.poolFree = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_pool_free_buffers",
			Help: "Recycled buffers available in an output port's pool",
		},
		[]string{"instance", "port"},
	)

	m.poolHits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_pool_hits",
			Help: "Cumulative acquisitions served from the free lists",
		},
		[]string{"instance", "port"},
	)

	m.poolMisses = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_pool_misses",
			Help: "Cumulative acquisitions that allocated fresh storage",
		},
		[]string{"instance", "port"},
	)

	m.collectors = []prometheus.Collector{
		m.framesProcessed,
		m.framesDropped,
		m.processingDuration,
		m.componentState,
		m.poolOutstanding,
		m.poolFree,
		m.poolHits,
		m.poolMisses,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *EngineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *EngineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// ObserveProcessing records one completed work iteration.
func (m *EngineMetrics) ObserveProcessing(componentType, instance string, duration time.Duration) {
	m.framesProcessed.WithLabelValues(componentType, instance).Inc()
	m.processingDuration.WithLabelValues(componentType, instance).Observe(duration.Seconds())
}

// IncFramesDropped records a dropped frame with its reason.
func (m *EngineMetrics) IncFramesDropped(instance, reason string) {
	m.framesDropped.WithLabelValues(instance, reason).Inc()
}

// SetComponentState records a component lifecycle transition. The gauge for
// the current state is set to the state ordinal; stale state labels keep
// their last value and are distinguished by the highest ordinal.
func (m *EngineMetrics) SetComponentState(instance, state string, value int) {
	m.componentState.WithLabelValues(instance, state).Set(float64(value))
}

// SetPoolStats publishes a pool statistics snapshot for one output port.
func (m *EngineMetrics) SetPoolStats(instance, port string, outstanding, free int, hits, misses uint64) {
	m.poolOutstanding.WithLabelValues(instance, port).Set(float64(outstanding))
	m.poolFree.WithLabelValues(instance, port).Set(float64(free))
	m.poolHits.WithLabelValues(instance, port).Set(float64(hits))
	m.poolMisses.WithLabelValues(instance, port).Set(float64(misses))
}
