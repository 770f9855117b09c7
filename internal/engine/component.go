// Package engine implements the framix pipeline runtime: typed port
// connections with backpressure, buffer-pool-backed frame flow, atomic
// configuration snapshots, the component lifecycle, and the graph builder
// that turns a declarative description into a running DAG of goroutines.
package engine

import (
	"context"
	"log/slog"

	"github.com/jlammi/framix/internal/frame"
)

// State is a component's lifecycle phase.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Default port names; components with one input and one output use these.
const (
	PortInput  = "input"
	PortOutput = "output"
)

// PortSpec declares one port of a component type.
type PortSpec struct {
	Name     string
	Optional bool // an unconnected non-optional port is a configuration error
	Static   bool // side input carrying latched static frames (Number < 0)
}

// ComponentSpec declares a component type's ports and parameters. A
// component with no inputs is a source; one whose outputs may all be left
// unconnected acts as a sink.
type ComponentSpec struct {
	Inputs  []PortSpec
	Outputs []PortSpec
	Params  Schema
}

// Worker is the algorithm half of a component; the engine supplies the
// lifecycle, port plumbing and configuration snapshots around it.
//
// Process is called once per work iteration with the lock-step correlated
// set of input frames keyed by port name (sources get an empty map; latched
// static side inputs appear under their port name every iteration). The
// worker reads inputs, publishes outputs through env, and must not release
// the input frames: the engine releases them after Process returns. A
// worker that retains an input beyond the call must Retain it.
//
// Returning ErrEndOfStream ends the component's own stream. A processing-
// category error drops the current frame set and continues; any other
// error is fatal for the component.
type Worker interface {
	Spec() ComponentSpec
	Process(env *Env, inputs map[string]*frame.Frame) error
}

// Initializer is implemented by workers needing startup validation or state
// setup; Init runs in the Initializing state with the startup snapshot,
// before any goroutine starts. An Init error aborts the whole graph start.
type Initializer interface {
	Init(cfg Snapshot) error
}

// Drainer is implemented by workers that produce a final artifact when the
// stream ends, such as chart writers. Drain runs once in the Draining
// state, before end-of-stream is forwarded downstream.
type Drainer interface {
	Drain(env *Env) error
}

// Env is the engine-side context a worker operates through during one
// Process or Drain call.
type Env struct {
	ctx    context.Context
	node   *node
	Config Snapshot     // parameter snapshot taken at iteration start
	Number int64        // iteration ordinal, counts from 0
	Logger *slog.Logger // carries component and instance attributes
}

// Name returns the component instance name.
func (e *Env) Name() string { return e.node.name }

// Acquire returns a writable frame handle from the named output port's
// buffer pool.
func (e *Env) Acquire(output string, shape frame.Shape) (*frame.Handle, error) {
	port, err := e.node.output(output)
	if err != nil {
		return nil, err
	}
	return port.Pool().Acquire(shape)
}

// Send publishes f on the named output port, consuming the caller's
// reference. Blocks under backpressure.
func (e *Env) Send(output string, f *frame.Frame) error {
	port, err := e.node.output(output)
	if err != nil {
		f.Release()
		return err
	}
	return port.Send(e.ctx, f)
}

// Connected reports whether the named output port has any consumers, so
// workers can skip producing frames nobody will read.
func (e *Env) Connected(output string) bool {
	port, err := e.node.output(output)
	return err == nil && port.Connected()
}
