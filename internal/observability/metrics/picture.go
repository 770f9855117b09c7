package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PictureMetrics contains Prometheus metrics published by picture-level
// sinks, such as the per-frame statistics component.
type PictureMetrics struct {
	registry *prometheus.Registry

	sampleMin  *prometheus.GaugeVec
	sampleMax  *prometheus.GaugeVec
	sampleMean *prometheus.GaugeVec
	frameCount *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewPictureMetrics creates and registers new picture metrics.
func NewPictureMetrics(registry *prometheus.Registry) (*PictureMetrics, error) {
	m := &PictureMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PictureMetrics) initMetrics() {
	m.sampleMin = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_frame_sample_min",
			Help: "Minimum sample value of the most recent frame",
		},
		[]string{"instance"},
	)

	m.sampleMax = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_frame_sample_max",
			Help: "Maximum sample value of the most recent frame",
		},
		[]string{"instance"},
	)

	m.sampleMean = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framix_frame_sample_mean",
			Help: "Mean sample value of the most recent frame",
		},
		[]string{"instance"},
	)

	m.frameCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framix_frames_observed_total",
			Help: "Total frames observed by a statistics sink",
		},
		[]string{"instance"},
	)

	m.collectors = []prometheus.Collector{
		m.sampleMin,
		m.sampleMax,
		m.sampleMean,
		m.frameCount,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *PictureMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *PictureMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordFrame publishes the sample statistics of one observed frame.
func (m *PictureMetrics) RecordFrame(instance string, minVal, maxVal, mean float64) {
	m.sampleMin.WithLabelValues(instance).Set(minVal)
	m.sampleMax.WithLabelValues(instance).Set(maxVal)
	m.sampleMean.WithLabelValues(instance).Set(mean)
	m.frameCount.WithLabelValues(instance).Inc()
}
