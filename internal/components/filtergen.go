package components

import (
	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/resample"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "filtergen",
		Description: "emits one static 2-D windowed-sinc resampling filter frame",
		New:         func() engine.Worker { return &filterGen{} },
	})
}

// filterGen designs a separable 2-D resampling filter and emits it once as
// a static frame for a resizer's filter side input, then ends its stream.
// The latched frame keeps serving downstream for the whole run.
type filterGen struct{}

func (*filterGen) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.IntRange("xup", 1, 1, 1024, "horizontal up-conversion factor"),
			engine.IntRange("xdown", 1, 1, 1024, "horizontal down-conversion factor"),
			engine.IntRange("xaperture", 16, 1, 1024, "horizontal filter aperture"),
			engine.IntRange("yup", 1, 1, 1024, "vertical up-conversion factor"),
			engine.IntRange("ydown", 1, 1, 1024, "vertical down-conversion factor"),
			engine.IntRange("yaperture", 16, 1, 1024, "vertical filter aperture"),
			engine.EnumParam("window", "hann", []string{"hann", "kaiser"}, "tapering window"),
		},
	}
}

func windowFromName(name string) resample.Window {
	if name == "kaiser" {
		return resample.WindowKaiser
	}
	return resample.WindowHann
}

func (*filterGen) Process(env *engine.Env, _ map[string]*frame.Frame) error {
	cfg := env.Config
	window := windowFromName(cfg.String("window"))

	xTaps, err := resample.CachedDesign(resample.FilterSpec{
		Up: cfg.Int("xup"), Down: cfg.Int("xdown"),
		Aperture: cfg.Int("xaperture"), Window: window,
	})
	if err != nil {
		return err
	}
	yTaps, err := resample.CachedDesign(resample.FilterSpec{
		Up: cfg.Int("yup"), Down: cfg.Int("ydown"),
		Aperture: cfg.Int("yaperture"), Window: window,
	})
	if err != nil {
		return err
	}

	handle, err := env.Acquire(engine.PortOutput, frame.Shape{Y: len(yTaps), X: len(xTaps), Planes: 1})
	if err != nil {
		return err
	}
	copy(handle.Data(), resample.Outer(yTaps, xTaps))
	handle.SetNumber(frame.StaticNumber)
	handle.SetType(frame.TypeFilter)
	handle.Meta().Auditf("data = filtergen()\n    x: %d/%d aperture %d, y: %d/%d aperture %d, %s window",
		cfg.Int("xup"), cfg.Int("xdown"), cfg.Int("xaperture"),
		cfg.Int("yup"), cfg.Int("ydown"), cfg.Int("yaperture"),
		cfg.String("window"))

	if err := env.Send(engine.PortOutput, handle.Publish()); err != nil {
		return err
	}
	return engine.ErrEndOfStream
}
