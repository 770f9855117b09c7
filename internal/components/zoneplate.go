package components

import (
	"math"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "zoneplate",
		Description: "zone plate test pattern source with linear and quadratic frequency sweeps",
		New:         func() engine.Worker { return &zonePlate{} },
	})
}

// zonePlate synthesizes the classic zone plate test pattern: the sample at
// (x, y, t) is a raised cosine of a phase polynomial in picture position
// and frame number. Linear terms give constant frequencies, quadratic
// terms frequency sweeps across the picture or through time. Output uses
// video levels, 16 for phase zero through 235 at the cosine peak.
type zonePlate struct {
	t int64
}

func (*zonePlate) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.IntRange("width", 640, 1, 16384, "picture width in samples"),
			engine.IntRange("height", 480, 1, 16384, "picture height in lines"),
			engine.IntRange("frames", 100, 1, 1<<30, "frames to emit before end of stream"),
			engine.BoolParam("loop", false, "restart the sequence instead of ending the stream"),
			engine.FloatParam("k0", 0, "constant phase offset, cycles"),
			engine.FloatParam("kx", 0, "horizontal frequency, cycles per picture width"),
			engine.FloatParam("ky", 0, "vertical frequency, cycles per picture height"),
			engine.FloatParam("kt", 0, "temporal frequency, cycles per sequence"),
			engine.FloatParam("kx2", 0, "horizontal frequency sweep across the width"),
			engine.FloatParam("kxy", 0, "horizontal frequency sweep down the picture"),
			engine.FloatParam("kxt", 0, "horizontal frequency sweep through time"),
			engine.FloatParam("ky2", 0, "vertical frequency sweep down the picture"),
			engine.FloatParam("kyt", 0, "vertical frequency sweep through time"),
			engine.FloatParam("kt2", 0, "temporal frequency sweep through time"),
		},
	}
}

func (z *zonePlate) Process(env *engine.Env, _ map[string]*frame.Frame) error {
	cfg := env.Config
	frames := int64(cfg.Int("frames"))
	if z.t >= frames {
		if !cfg.Bool("loop") {
			return engine.ErrEndOfStream
		}
		z.t = 0
	}

	width := cfg.Int("width")
	height := cfg.Int("height")
	xlen := float64(width)
	ylen := float64(height)
	zlen := float64(frames)

	// Normalize the frequency terms to picture and sequence dimensions.
	// Vertical terms are negated so the frequency origin sits at the
	// bottom-left of the displayed picture.
	k0 := cfg.Float("k0")
	kx := cfg.Float("kx") / xlen
	ky := -cfg.Float("ky") / ylen
	kt := cfg.Float("kt") / zlen
	kx2 := cfg.Float("kx2") / (2.0 * xlen * xlen)
	kxy := -cfg.Float("kxy") / (xlen * ylen)
	kxt := cfg.Float("kxt") / (xlen * zlen)
	ky2 := -cfg.Float("ky2") / (2.0 * ylen * ylen)
	kyt := -cfg.Float("kyt") / (ylen * zlen)
	kt2 := cfg.Float("kt2") / (2.0 * zlen * zlen)

	handle, err := env.Acquire(engine.PortOutput, frame.Shape{Y: height, X: width, Planes: 1})
	if err != nil {
		return err
	}

	t := float64(z.t)
	data := handle.Data()
	phaseT := k0 + (kt+kt2*t)*t
	for y := 0; y < height; y++ {
		fy := float64(y)
		phaseY := phaseT + (ky+ky2*fy+kyt*t)*fy
		rowFreq := kx + kxy*fy + kxt*t
		row := y * width
		for x := 0; x < width; x++ {
			fx := float64(x)
			phase := math.Mod(phaseY+(rowFreq+kx2*fx)*fx, 1.0)
			data[row+x] = float32(16.0 + 219.0*(1.0+math.Cos(2.0*math.Pi*phase))/2.0)
		}
	}

	handle.SetNumber(z.t)
	handle.SetType(frame.TypeY)
	handle.Meta().Auditf("data = zoneplate()\n    %dx%d, frame %d of %d\n    k0=%g kx=%g ky=%g kt=%g",
		width, height, z.t, frames, k0, cfg.Float("kx"), cfg.Float("ky"), cfg.Float("kt"))
	z.t++
	return env.Send(engine.PortOutput, handle.Publish())
}
