// Package components provides the built-in framix component types: test
// pattern sources, arithmetic and colour-space transformers, the polyphase
// resizer, and terminal sinks for recording, statistics and charts. Every
// type registers itself with the engine registry at process start.
package components

import (
	"path/filepath"
	"sync/atomic"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/observability/metrics"
)

// pictureMetrics is the optional metrics sink for picture statistics
// components. Registry constructors take no arguments, so metrics are
// injected at this package level by whoever owns the registry.
var pictureMetrics atomic.Pointer[metrics.PictureMetrics]

// SetPictureMetrics wires picture statistics metrics into the stats sink.
// Pass nil to disable.
func SetPictureMetrics(m *metrics.PictureMetrics) {
	pictureMetrics.Store(m)
}

// outputDir is the base directory for artifact files written by sink
// components, injected from the configured output path the same way as
// pictureMetrics above.
var outputDir atomic.Pointer[string]

// SetOutputDir sets the base directory that relative artifact paths
// resolve against. Pass the empty string to resolve against the working
// directory.
func SetOutputDir(dir string) {
	outputDir.Store(&dir)
}

// artifactPath resolves path against the configured output directory.
// Absolute paths are used as given.
func artifactPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if d := outputDir.Load(); d != nil && *d != "" {
		return filepath.Join(*d, path)
	}
	return path
}

// forward re-publishes in on the default output port with one audit entry
// appended, sharing sample data with the input. Passthrough components use
// this so forwarded frames are bit-identical. A disconnected output is a
// no-op.
func forward(env *engine.Env, in *frame.Frame, audit string) error {
	if !env.Connected(engine.PortOutput) {
		return nil
	}
	meta := in.Meta().Copy()
	meta.AppendAudit(audit)
	out := frame.Derive(in, in.Number(), in.Type(), meta)
	return env.Send(engine.PortOutput, out)
}

// transformError wraps a per-frame failure so the engine drops the frame
// and continues instead of stopping the component.
func transformError(err error, instance string, number int64) error {
	return errors.TransformError(err, instance, number)
}

// shapeError is a fatal malformed-shape error; the engine stops the
// component and propagates end-of-stream.
func shapeError(instance string, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("components").
		Category(errors.CategoryValidation).
		Context("instance", instance).
		Build()
}
