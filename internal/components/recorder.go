package components

import (
	"sync"

	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
)

func init() {
	engine.Register(engine.Registration{
		Type:        "recorder",
		Description: "retains received frames in memory for inspection after the run",
		New:         func() engine.Worker { return &Recorder{} },
	})
}

// Recorder is a passthrough sink retaining a reference to every frame it
// receives, up to a cap, so tests and the CLI can inspect a run's output
// after the graph drains. Retained frames pin their buffers; callers must
// Reset when done with them.
type Recorder struct {
	mu     sync.Mutex
	frames []*frame.Frame
	eos    bool
}

func (*Recorder) Spec() engine.ComponentSpec {
	return engine.ComponentSpec{
		Inputs:  []engine.PortSpec{{Name: engine.PortInput}},
		Outputs: []engine.PortSpec{{Name: engine.PortOutput, Optional: true}},
		Params: engine.Schema{
			engine.IntRange("capacity", 64, 1, 1<<20, "most recent frames to retain"),
		},
	}
}

func (r *Recorder) Process(env *engine.Env, inputs map[string]*frame.Frame) error {
	in := inputs[engine.PortInput]
	capacity := env.Config.Int("capacity")

	in.Retain()
	r.mu.Lock()
	r.frames = append(r.frames, in)
	for len(r.frames) > capacity {
		r.frames[0].Release()
		r.frames = r.frames[1:]
	}
	r.mu.Unlock()

	return forward(env, in, "data = recorder(data)")
}

func (r *Recorder) Drain(env *engine.Env) error {
	r.mu.Lock()
	r.eos = true
	count := len(r.frames)
	r.mu.Unlock()
	env.Logger.Info("recording complete", "frames", count)
	return nil
}

// Frames returns the retained frames in arrival order. The recorder keeps
// its references; callers must not release the returned frames.
func (r *Recorder) Frames() []*frame.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*frame.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// EndOfStream reports whether the recorded stream terminated with the
// end-of-stream marker.
func (r *Recorder) EndOfStream() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eos
}

// Reset releases every retained frame.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.frames {
		f.Release()
	}
	r.frames = nil
}
