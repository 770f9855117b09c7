// Package errors - telemetry reporting hooks (optional)
package errors

import (
	"sync/atomic"
)

// TelemetryReporter is an interface for reporting errors to telemetry
// systems. Implemented by the telemetry package so this package never
// imports an SDK directly.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryReporter  atomic.Pointer[TelemetryReporter]
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil
// disables reporting and restores the fast path in Build.
func SetTelemetryReporter(reporter TelemetryReporter) {
	if reporter == nil {
		telemetryReporter.Store(nil)
		hasActiveReporting.Store(false)
		return
	}
	telemetryReporter.Store(&reporter)
	hasActiveReporting.Store(reporter.IsEnabled())
}

// reportToTelemetry forwards an enhanced error to the configured reporter,
// if any. Errors are reported at most once.
func reportToTelemetry(ee *EnhancedError) {
	if !hasActiveReporting.Load() {
		return
	}

	reporterPtr := telemetryReporter.Load()
	if reporterPtr == nil {
		return
	}

	reporter := *reporterPtr
	if reporter == nil || !reporter.IsEnabled() || ee.IsReported() {
		return
	}

	reporter.ReportError(ee)
}
