package components

import (
	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "stats",
		Description: "logs per-frame min/max/mean and publishes them as metrics",
		New:         func() engine.Worker { return &stats{} },
	})
}

// stats is a passthrough sink reporting sample statistics of every frame it
// sees, to the log and, when wired, to Prometheus.
type stats struct {
	frames int64
}

func (*stats) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs:  []engine.PortSpec{{Name: engine.PortInput}},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput, Optional: true}},
		Params:  engine.Schema{},
	}
}

func (s *stats) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	data := in.Data()

	minVal := data[0]
	maxVal := data[0]
	sum := 0.0
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += float64(v)
	}
	mean := sum / float64(len(data))
	s.frames++

	env.Logger.Info("frame statistics",
		"frame", in.Number(),
		"shape", in.Shape().String(),
		"min", minVal,
		"max", maxVal,
		"mean", mean)
	if m := pictureMetrics.Load(); m != nil {
		m.RecordFrame(env.Name(), float64(minVal), float64(maxVal), mean)
	}

	return forward(env, in, "data = stats(data)")
}

func (s *stats) Drain(env *engine.Env) error {
	env.Logger.Info("stream complete", "frames", s.frames)
	return nil
}
