// Package telemetry provides optional, strictly opt-in error reporting via
// Sentry. Nothing is initialized or sent unless the user enables it in the
// configuration; with telemetry disabled the errors package keeps its fast
// path and this package is inert.
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/jlammi/framix/internal/buildinfo"
	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/logging"
)

var initialized atomic.Bool

// Init initializes the Sentry SDK and registers the error reporter when
// telemetry is enabled in settings. Safe to call with telemetry disabled;
// it then does nothing.
func Init(settings *conf.Settings, build *buildinfo.Context) error {
	if !settings.Sentry.Enabled {
		return nil
	}
	if settings.Sentry.DSN == "" {
		return errors.NewStd("sentry telemetry enabled but no DSN configured")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Environment:      settings.Sentry.Environment,
		Release:          "framix@" + build.Version,
		SampleRate:       1.0,
		AttachStacktrace: true,
	})
	if err != nil {
		return errors.Newf("initializing sentry: %w", err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	initialized.Store(true)
	errors.SetTelemetryReporter(&reporter{})
	if log := logging.ForService("telemetry"); log != nil {
		log.Info("error telemetry enabled", "environment", settings.Sentry.Environment)
	}
	return nil
}

// Flush drains pending events; call before process exit.
func Flush(timeout time.Duration) {
	if initialized.Load() {
		sentry.Flush(timeout)
	}
}

// Shutdown disables reporting and flushes.
func Shutdown() {
	if initialized.CompareAndSwap(true, false) {
		errors.SetTelemetryReporter(nil)
		sentry.Flush(2 * time.Second)
	}
}

// reporter adapts the errors package hook onto the Sentry SDK.
type reporter struct{}

// IsEnabled implements errors.TelemetryReporter.
func (*reporter) IsEnabled() bool {
	return initialized.Load()
}

// ReportError implements errors.TelemetryReporter. Component-fatal and
// structural errors arrive here through the errors package fan-out.
func (*reporter) ReportError(ee *errors.EnhancedError) {
	if !initialized.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		if p := ee.GetPriority(); p != "" {
			scope.SetTag("priority", p)
		}
		if ctx := ee.GetContext(); len(ctx) > 0 {
			scope.SetContext("error_context", ctx)
		}
		sentry.CaptureException(ee.Unwrap())
	})
	ee.MarkReported()
}
