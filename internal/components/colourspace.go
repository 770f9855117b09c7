package components

import (
	"fmt"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "rgbtoy",
		Description: "RGB to luminance conversion with BT.601 weights",
		New:         func() engine.Worker { return &rgbToY{} },
	})
}

// BT.601 luma weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

type rgbToY struct{}

func (*rgbToY) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs:  []engine.PortSpec{{Name: engine.PortInput}},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params:  engine.Schema{},
	}
}

func (*rgbToY) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	shape := in.Shape()
	if shape.Planes != 3 {
		return transformError(
			fmt.Errorf("expected 3 colour planes, got %d", shape.Planes),
			env.Name(), in.Number())
	}

	handle, err := env.Acquire(engine.PortOutput, frame.Shape{Y: shape.Y, X: shape.X, Planes: 1})
	if err != nil {
		return err
	}
	handle.Inherit(in)
	handle.SetType(frame.TypeY)

	src := in.Data()
	dst := handle.Data()
	for i := range dst {
		s := src[i*3:]
		dst[i] = weightR*s[0] + weightG*s[1] + weightB*s[2]
	}
	handle.Meta().Auditf("data = rgbtoy(data)\n    weights %g, %g, %g", weightR, weightG, weightB)
	return env.Send(engine.PortOutput, handle.Publish())
}
