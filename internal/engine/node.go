// node.go: the per-component runner. Each node owns one goroutine and walks
// the component lifecycle: Initializing validates wiring and startup
// configuration, Running is the steady snapshot-gather-process loop,
// Draining forwards end-of-stream downstream, Stopped is terminal.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/observability/metrics"
)

type node struct {
	name   string
	typ    string
	worker Worker
	spec   ComponentSpec

	config  *ConfigChannel
	inputs  map[string]*InputPort
	outputs map[string]*OutputPort

	state   atomic.Int32
	stopReq atomic.Bool // asks a source to end its stream early

	// latched static side-input frames, one reference held per port
	latched    map[string]*frame.Frame
	staticDone map[string]bool

	logger  *slog.Logger
	metrics *metrics.EngineMetrics

	runErr error // fatal error that stopped the component, if any
}

func newNode(name, typ string, worker Worker, initial map[string]any, logger *slog.Logger, m *metrics.EngineMetrics, poolConfig frame.PoolConfig) *node {
	spec := worker.Spec()
	n := &node{
		name:       name,
		typ:        typ,
		worker:     worker,
		spec:       spec,
		inputs:     make(map[string]*InputPort, len(spec.Inputs)),
		outputs:    make(map[string]*OutputPort, len(spec.Outputs)),
		latched:    make(map[string]*frame.Frame),
		staticDone: make(map[string]bool),
		logger:     logger.With("component", typ, "instance", name),
		metrics:    m,
	}
	n.config = NewConfigChannel(spec.Params, initial, n.logger)
	for _, ps := range spec.Inputs {
		n.inputs[ps.Name] = &InputPort{name: ps.Name, spec: ps}
	}
	for _, ps := range spec.Outputs {
		n.outputs[ps.Name] = &OutputPort{name: ps.Name, spec: ps, pool: frame.NewPool(poolConfig)}
	}
	n.setState(StateCreated)
	return n
}

func (n *node) State() State {
	return State(n.state.Load())
}

func (n *node) setState(s State) {
	n.state.Store(int32(s))
	if n.metrics != nil {
		n.metrics.SetComponentState(n.name, s.String(), int(s))
	}
}

func (n *node) isSource() bool {
	return len(n.spec.Inputs) == 0
}

func (n *node) output(name string) (*OutputPort, error) {
	port, ok := n.outputs[name]
	if !ok {
		return nil, errors.Newf("component %q has no output port %q", n.name, name).
			Component("engine").
			Category(errors.CategoryValidation).
			Build()
	}
	return port, nil
}

// init runs the Initializing phase: required wiring checks and the worker's
// own startup validation, with the startup configuration snapshot. Runs
// before the component goroutine starts; an error aborts the graph start.
func (n *node) init() error {
	n.setState(StateInitializing)

	var errs []error
	for _, ps := range n.spec.Inputs {
		if !ps.Optional && !n.inputs[ps.Name].Connected() {
			errs = append(errs, errors.Newf("component %q: required input %q is not connected", n.name, ps.Name).
				Component("engine").
				Category(errors.CategoryConfiguration).
				Build())
		}
	}
	for _, ps := range n.spec.Outputs {
		if !ps.Optional && !n.outputs[ps.Name].Connected() {
			errs = append(errs, errors.Newf("component %q: required output %q is not connected", n.name, ps.Name).
				Component("engine").
				Category(errors.CategoryConfiguration).
				Build())
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if init, ok := n.worker.(Initializer); ok {
		if err := init.Init(n.config.Load()); err != nil {
			return errors.New(err).
				Component("engine").
				Category(errors.CategoryConfiguration).
				GraphContext(n.name, n.typ).
				Build()
		}
	}
	return nil
}

// run is the component goroutine body. It always leaves the node in
// StateStopped with its pools closed.
func (n *node) run(ctx context.Context) {
	n.setState(StateRunning)
	n.logger.Debug("component running")

	drain := true
	var iteration int64

	for {
		if n.isSource() && n.stopReq.Load() {
			break
		}

		inputs, release, eos, err := n.gather(ctx)
		if eos {
			break
		}
		if err != nil {
			// Cancelled mid-receive: forced stop, skip the drain.
			drain = false
			break
		}

		// Snapshot after the inputs arrive: an update requested at any
		// point before this iteration's transform begins is applied in
		// full, and never observed by the frame before it.
		snapshot := n.config.Load()

		env := &Env{ctx: ctx, node: n, Config: snapshot, Number: iteration, Logger: n.logger}
		start := time.Now()
		err = n.worker.Process(env, inputs)
		for _, f := range release {
			f.Release()
		}
		if n.metrics != nil {
			n.metrics.ObserveProcessing(n.typ, n.name, time.Since(start))
			n.updatePoolMetrics()
		}
		iteration++

		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrEndOfStream):
			// Worker finished its own stream.
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			drain = false
		case errors.IsCategory(err, errors.CategoryProcessing):
			// One frame could not be processed: log with full context,
			// drop it and carry on.
			n.logger.Error("frame dropped",
				"error", err,
				"frame", iteration-1,
				"parameters", map[string]any(snapshot))
			if n.metrics != nil {
				n.metrics.IncFramesDropped(n.name, "transform")
			}
			continue
		default:
			// Fatal for this component: stop and let the graph drain
			// through the forwarded end-of-stream.
			n.runErr = err
			n.logger.Error("component failed", "error", err, "frame", iteration-1)
			if n.metrics != nil {
				n.metrics.IncFramesDropped(n.name, "fatal")
			}
		}
		break
	}

	if drain {
		n.drainOut(ctx)
		n.drainInputs(ctx)
	}
	n.teardown()
	n.setState(StateStopped)
	n.logger.Debug("component stopped")
}

// drainOut runs the Draining phase: the worker's final artifact hook, then
// the end-of-stream sentinel on every output.
func (n *node) drainOut(ctx context.Context) {
	n.setState(StateDraining)
	if d, ok := n.worker.(Drainer); ok {
		snapshot := n.config.Load()
		env := &Env{ctx: ctx, node: n, Config: snapshot, Number: -1, Logger: n.logger}
		if err := d.Drain(env); err != nil {
			n.logger.Error("drain failed", "error", err)
		}
	}
	for _, port := range n.outputs {
		if err := port.SendEOS(ctx); err != nil {
			return
		}
	}
}

// drainInputs consumes the remaining stream on every connected input that
// has not yet delivered its end-of-stream sentinel. A component that stops
// ahead of its producers (fatal error, or a worker ending its own stream)
// would otherwise leave them blocked on a full queue, and a cooperative
// graph stop could never complete.
func (n *node) drainInputs(ctx context.Context) {
	for _, port := range n.inputs {
		if port.Connected() {
			port.drain(ctx)
		}
	}
}

// teardown releases latched side-input frames and closes the output pools.
// Frames still travelling downstream stay valid; their storage is freed
// rather than recycled once released.
func (n *node) teardown() {
	for name, f := range n.latched {
		f.Release()
		delete(n.latched, name)
	}
	for _, port := range n.outputs {
		port.Pool().Close()
	}
	if n.metrics != nil {
		n.updatePoolMetrics()
	}
}

// gather assembles one correlated input set. Streamed inputs are read in
// lock-step on frame number: laggards are advanced, discarding older
// frames, until every port agrees. Static side inputs are latched: the
// first frame is awaited, later ones adopted opportunistically.
//
// The returned release list holds the frames the runner must release after
// Process; latched frames are excluded, they stay owned by the node.
func (n *node) gather(ctx context.Context) (inputs map[string]*frame.Frame, release []*frame.Frame, eos bool, err error) {
	inputs = make(map[string]*frame.Frame, len(n.inputs))

	// Static side inputs first; a blocked stream input must not delay a
	// filter update forever, so refresh before correlating.
	for name, port := range n.inputs {
		if !port.spec.Static || !port.Connected() {
			continue
		}
		if err := n.refreshLatch(ctx, name, port); err != nil {
			return nil, nil, false, err
		}
		if f := n.latched[name]; f != nil {
			inputs[name] = f
		}
	}

	type pending struct {
		port *InputPort
		f    *frame.Frame
	}
	var streams []pending
	for _, ps := range n.spec.Inputs {
		port := n.inputs[ps.Name]
		if ps.Static || !port.Connected() {
			continue
		}
		f, err := port.Receive(ctx)
		if errors.Is(err, ErrEndOfStream) {
			// End of stream on one required input ends the component;
			// drain the siblings so upstream is not left blocked.
			for _, p := range streams {
				p.f.Release()
				p.port.drain(ctx)
			}
			for _, other := range n.spec.Inputs[indexOfPort(n.spec.Inputs, ps.Name)+1:] {
				if op := n.inputs[other.Name]; !other.Static && op.Connected() {
					op.drain(ctx)
				}
			}
			return nil, nil, true, nil
		}
		if err != nil {
			for _, p := range streams {
				p.f.Release()
			}
			return nil, nil, false, err
		}
		streams = append(streams, pending{port: port, f: f})
	}

	// Lock-step correlation: advance every laggard to the newest frame
	// number seen, discarding older frames.
	for {
		var target int64 = -1
		for _, p := range streams {
			if p.f.Number() > target {
				target = p.f.Number()
			}
		}
		matched := true
		for i := range streams {
			p := &streams[i]
			for p.f.Number() >= 0 && p.f.Number() < target {
				p.f.Release()
				f, err := p.port.Receive(ctx)
				if errors.Is(err, ErrEndOfStream) {
					for j := range streams {
						if j != i {
							streams[j].f.Release()
							streams[j].port.drain(ctx)
						}
					}
					return nil, nil, true, nil
				}
				if err != nil {
					for j := range streams {
						if j != i {
							streams[j].f.Release()
						}
					}
					return nil, nil, false, err
				}
				p.f = f
			}
			if p.f.Number() >= 0 && p.f.Number() > target {
				matched = false
			}
		}
		if matched {
			break
		}
	}

	for _, p := range streams {
		inputs[p.port.Name()] = p.f
		release = append(release, p.f)
	}
	return inputs, release, false, nil
}

// refreshLatch updates a static side-input latch. Blocks for the first
// frame so a component never runs without its side data; afterwards new
// frames are adopted without blocking.
func (n *node) refreshLatch(ctx context.Context, name string, port *InputPort) error {
	if n.staticDone[name] {
		return nil
	}
	if n.latched[name] == nil {
		f, err := port.Receive(ctx)
		if errors.Is(err, ErrEndOfStream) {
			n.staticDone[name] = true
			return nil
		}
		if err != nil {
			return err
		}
		n.latched[name] = f
		return nil
	}
	for {
		f, ok, err := port.TryReceive()
		if !ok {
			return nil
		}
		if errors.Is(err, ErrEndOfStream) {
			n.staticDone[name] = true
			return nil
		}
		n.latched[name].Release()
		n.latched[name] = f
	}
}

func (n *node) updatePoolMetrics() {
	for _, port := range n.outputs {
		stats := port.Pool().Stats()
		n.metrics.SetPoolStats(n.name, port.Name(), stats.Outstanding, stats.Free, stats.Hits, stats.Misses)
	}
}

func indexOfPort(specs []PortSpec, name string) int {
	for i := range specs {
		if specs[i].Name == name {
			return i
		}
	}
	return -1
}
