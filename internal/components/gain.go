package components

import (
	"fmt"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "gain",
		Description: "per-sample linear scaling: gain*x + offset",
		New:         func() engine.Worker { return &gain{} },
	})
	engine.Register(engine.Registration{
		Type:        "blend",
		Description: "weighted sum of two lock-step inputs: a*input1 + b*input2",
		New:         func() engine.Worker { return &blend{} },
	})
}

type gain struct{}

func (*gain) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs:  []engine.PortSpec{{Name: engine.PortInput}},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.FloatParam("gain", 1.0, "multiplier applied to every sample"),
			engine.FloatParam("offset", 0.0, "value added after the multiply"),
		},
	}
}

func (*gain) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	g := float32(env.Config.Float("gain"))
	offset := float32(env.Config.Float("offset"))

	handle, err := env.Acquire(engine.PortOutput, in.Shape())
	if err != nil {
		return err
	}
	handle.Inherit(in)

	src := in.Data()
	dst := handle.Data()
	for i, v := range src {
		dst[i] = g*v + offset
	}
	handle.Meta().Auditf("data = data*gain + offset\n    gain=%g offset=%g",
		env.Config.Float("gain"), env.Config.Float("offset"))
	return env.Send(engine.PortOutput, handle.Publish())
}

// blend mixes two lock-step streams. Both inputs must agree on shape; a
// mismatched pair is dropped as a transform error.
type blend struct{}

func (*blend) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs: []engine.PortSpec{
			{Name: "input1"},
			{Name: "input2"},
		},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.FloatParam("a", 0.5, "weight of input1"),
			engine.FloatParam("b", 0.5, "weight of input2"),
		},
	}
}

func (*blend) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in1 := inputs["input1"]
	in2 := inputs["input2"]
	if in1.Shape() != in2.Shape() {
		return transformError(
			fmt.Errorf("input shapes differ: %s vs %s", in1.Shape(), in2.Shape()),
			env.Name(), in1.Number())
	}

	a := float32(env.Config.Float("a"))
	b := float32(env.Config.Float("b"))

	handle, err := env.Acquire(engine.PortOutput, in1.Shape())
	if err != nil {
		return err
	}
	handle.SetNumber(in1.Number())
	handle.SetType(in1.Type())

	d1 := in1.Data()
	d2 := in2.Data()
	dst := handle.Data()
	for i := range dst {
		dst[i] = a*d1[i] + b*d2[i]
	}

	// Fresh metadata: both upstream audit trails are embedded as indented
	// blocks of the single entry this component adds.
	meta := handle.Meta()
	for _, key := range in1.Meta().Keys() {
		v, _ := in1.Meta().Get(key)
		meta.Set(key, v)
	}
	meta.Auditf("data = a*data1 + b*data2\n    a=%g b=%g\n    data1 = {\n%s\n    }\n    data2 = {\n%s\n    }",
		env.Config.Float("a"), env.Config.Float("b"),
		frame.IndentBlock(frame.IndentBlock(in1.Meta().Audit())),
		frame.IndentBlock(frame.IndentBlock(in2.Meta().Audit())))
	return env.Send(engine.PortOutput, handle.Publish())
}
