package components

import (
	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/resample"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "resize",
		Description: "rational spatial resize through the polyphase resampling engine",
		New:         func() engine.Worker { return &resize{} },
	})
}

// resize rescales every plane of its input by xup/xdown horizontally and
// yup/ydown
// vertically. The filter comes from the static "filter" side input when
// one is wired, otherwise it is designed from the aperture parameter. A
// supplied 2-D filter must be separable; its factors are scaled by the up
// factors so each polyphase phase has unit DC gain.
type resize struct{}

func (*resize) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs: []engine.PortSpec{
			{Name: engine.PortInput},
			{Name: "filter", Optional: true, Static: true},
		},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.IntRange("xup", 1, 1, 1024, "horizontal up-conversion factor"),
			engine.IntRange("xdown", 1, 1, 1024, "horizontal down-conversion factor"),
			engine.IntRange("yup", 1, 1, 1024, "vertical up-conversion factor"),
			engine.IntRange("ydown", 1, 1, 1024, "vertical down-conversion factor"),
			engine.IntRange("aperture", 16, 1, 1024, "self-designed filter aperture"),
			engine.EnumParam("window", "hann", []string{"hann", "kaiser"}, "self-designed filter window"),
		},
	}
}

func (r *resize) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	cfg := env.Config
	xUp, xDown := cfg.Int("xup"), cfg.Int("xdown")
	yUp, yDown := cfg.Int("yup"), cfg.Int("ydown")

	// A bad filter is fatal: it is static, so every later frame would
	// fail the same way.
	xTaps, yTaps, filterAudit, err := r.filters(env, inputs["filter"])
	if err != nil {
		return err
	}

	shape := in.Shape()
	data, outHeight, outWidth, err := resample.ResampleImage(
		in.Data(), shape.Y, shape.X, shape.Planes,
		xTaps, xUp, xDown,
		yTaps, yUp, yDown)
	if err != nil {
		return transformError(err, env.Name(), in.Number())
	}

	handle, err := env.Acquire(engine.PortOutput, frame.Shape{Y: outHeight, X: outWidth, Planes: shape.Planes})
	if err != nil {
		return err
	}
	handle.Inherit(in)
	copy(handle.Data(), data)

	if filterAudit != "" {
		handle.Meta().Auditf("data = resize(data)\n    x: %d/%d, y: %d/%d\n    filter = {\n%s\n    }",
			xUp, xDown, yUp, yDown,
			frame.IndentBlock(frame.IndentBlock(filterAudit)))
	} else {
		handle.Meta().Auditf("data = resize(data)\n    x: %d/%d, y: %d/%d, aperture %d",
			xUp, xDown, yUp, yDown, cfg.Int("aperture"))
	}
	return env.Send(engine.PortOutput, handle.Publish())
}

// filters returns the per-axis taps, already scaled to the resampler's
// per-phase gain convention, and the audit trail of a supplied filter
// frame. Axes with a 1/1 ratio and no supplied filter stay nil, skipping
// the pass entirely.
func (r *resize) filters(env *engine.Env, fil *frame.Frame) (xTaps, yTaps []float32, filterAudit string, err error) {
	cfg := env.Config
	xUp, xDown := cfg.Int("xup"), cfg.Int("xdown")
	yUp, yDown := cfg.Int("yup"), cfg.Int("ydown")

	if fil != nil {
		shape := fil.Shape()
		if fil.Type() != frame.TypeFilter || shape.Planes != 1 {
			return nil, nil, "", shapeError(env.Name(),
				"filter input is not a single-plane filter frame: type %q shape %s", fil.Type(), shape)
		}
		if shape.Y%2 == 0 || shape.X%2 == 0 {
			return nil, nil, "", shapeError(env.Name(),
				"filter dimensions must be odd, got %s", shape)
		}
		yTaps, xTaps, err = resample.FactorSeparable(fil.Data(), shape.Y, shape.X)
		if err != nil {
			return nil, nil, "", err
		}
		scale(xTaps, float32(xUp))
		scale(yTaps, float32(yUp))
		return xTaps, yTaps, fil.Meta().Audit(), nil
	}

	window := windowFromName(cfg.String("window"))
	aperture := cfg.Int("aperture")
	if xUp != 1 || xDown != 1 {
		xTaps, err = resample.CachedDesign(resample.FilterSpec{
			Up: xUp, Down: xDown, Aperture: aperture, Window: window,
		})
		if err != nil {
			return nil, nil, "", err
		}
		xTaps = scaledCopy(xTaps, float32(xUp))
	}
	if yUp != 1 || yDown != 1 {
		yTaps, err = resample.CachedDesign(resample.FilterSpec{
			Up: yUp, Down: yDown, Aperture: aperture, Window: window,
		})
		if err != nil {
			return nil, nil, "", err
		}
		yTaps = scaledCopy(yTaps, float32(yUp))
	}
	return xTaps, yTaps, "", nil
}

func scale(taps []float32, factor float32) {
	for i := range taps {
		taps[i] *= factor
	}
}

// scaledCopy scales without mutating cached tap arrays.
func scaledCopy(taps []float32, factor float32) []float32 {
	out := make([]float32, len(taps))
	for i, t := range taps {
		out[i] = t * factor
	}
	return out
}
