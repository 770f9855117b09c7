// Package observability provides Prometheus metrics for monitoring the
// framix pipeline. Error telemetry is handled in the telemetry package.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jlammi/framix/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Engine   *metrics.EngineMetrics
	Picture  *metrics.PictureMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors against a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	engineMetrics, err := metrics.NewEngineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine metrics: %w", err)
	}

	pictureMetrics, err := metrics.NewPictureMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create picture metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Engine:   engineMetrics,
		Picture:  pictureMetrics,
	}, nil
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
