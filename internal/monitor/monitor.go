// Package monitor provides a system memory watcher that trims the
// pipeline's buffer pools when used memory crosses a configured threshold,
// so long-running low-memory deployments shed their free-list high-water
// marks without stopping the graph.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/logging"
)

// Trimmable is anything holding releasable buffer memory; the graph
// runtime implements it.
type Trimmable interface {
	TrimPools()
}

// ResourceMonitor samples system memory on an interval and trims registered
// targets while usage stays above the threshold.
type ResourceMonitor struct {
	interval  time.Duration
	threshold float64

	mu      sync.Mutex
	targets []Trimmable

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *slog.Logger
}

// NewResourceMonitor creates a monitor from the application settings.
func NewResourceMonitor(settings *conf.Settings) *ResourceMonitor {
	log := logging.ForService("monitor")
	if log == nil {
		log = slog.Default()
	}
	return &ResourceMonitor{
		interval:  settings.Monitor.Interval,
		threshold: settings.Monitor.MemoryThreshold,
		log:       log,
	}
}

// Register adds a trim target. Safe to call while the monitor runs.
func (m *ResourceMonitor) Register(t Trimmable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append(m.targets, t)
}

// Start launches the sampling loop.
func (m *ResourceMonitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop(ctx)
	}()
	m.log.Info("resource monitor started",
		"interval", m.interval,
		"memory_threshold_percent", m.threshold)
}

// Stop ends the sampling loop and waits for it to finish.
func (m *ResourceMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *ResourceMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *ResourceMonitor) check(ctx context.Context) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		m.log.Warn("memory sampling failed", "error", err)
		return
	}
	if vm.UsedPercent < m.threshold {
		return
	}

	m.mu.Lock()
	targets := make([]Trimmable, len(m.targets))
	copy(targets, m.targets)
	m.mu.Unlock()

	m.log.Warn("memory pressure, trimming buffer pools",
		"used_percent", vm.UsedPercent,
		"threshold_percent", m.threshold,
		"targets", len(targets))
	for _, t := range targets {
		t.TrimPools()
	}
}
