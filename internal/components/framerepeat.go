package components

import (
	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "framerepeat",
		Description: "repeats every input frame a fixed number of times, renumbering the output",
		New:         func() engine.Worker { return &frameRepeat{} },
	})
}

// frameRepeat emits each input frame count times. Output frames share the
// input's sample storage and are renumbered so the output stream stays
// sequential: input frame n becomes output frames n*count .. n*count+count-1.
type frameRepeat struct{}

func (*frameRepeat) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs:  []engine.PortSpec{{Name: engine.PortInput}},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput}},
		Params: engine.Schema{
			engine.IntRange("count", 1, 1, 1024, "times to emit each input frame"),
		},
	}
}

func (*frameRepeat) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	count := int64(env.Config.Int("count"))

	for i := int64(0); i < count; i++ {
		meta := in.Meta().Copy()
		meta.Auditf("data = framerepeat(data)\n    copy %d of %d", i+1, count)
		out := frame.Derive(in, in.Number()*count+i, in.Type(), meta)
		if err := env.Send(engine.PortOutput, out); err != nil {
			return err
		}
	}
	return nil
}
