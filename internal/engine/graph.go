// graph.go: building a pipeline from a declarative description and running
// it. Build validates the whole description and reports every violation at
// once; Start launches one goroutine per component; Stop injects
// end-of-stream at the sources and falls back to context cancellation only
// when the graph fails to drain within the bound.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/logging"
	"github.com/jlammi/framix/internal/observability/metrics"
)

type buildOptions struct {
	queueCapacity int
	poolConfig    frame.PoolConfig
	logger        *slog.Logger
	metrics       *metrics.EngineMetrics
}

// Option adjusts graph construction.
type Option func(*buildOptions)

// WithQueueCapacity sets the bounded queue length of every connection.
func WithQueueCapacity(n int) Option {
	return func(o *buildOptions) { o.queueCapacity = n }
}

// WithPoolConfig sets the buffer pool tuning applied to every output port.
func WithPoolConfig(pc frame.PoolConfig) Option {
	return func(o *buildOptions) { o.poolConfig = pc }
}

// WithLogger sets the base logger; per-component loggers derive from it.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) { o.logger = l }
}

// WithMetrics wires engine metrics collection into every component.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(o *buildOptions) { o.metrics = m }
}

// Graph is a built pipeline: components wired per a Description, ready to
// start. A Graph runs at most once.
type Graph struct {
	id     string
	nodes  []*node // description order
	byName map[string]*node

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	done    chan struct{}

	logger *slog.Logger
}

// Build instantiates every component in the description via the registry,
// wires the connections and validates the result: unknown types, duplicate
// instance names, unknown edge endpoints, multiple producers on one input,
// missing non-optional ports, cycles, and invalid initial parameter values.
// All violations are collected into one joined error.
func Build(desc *Description, opts ...Option) (*Graph, error) {
	o := buildOptions{queueCapacity: DefaultQueueCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.ForService("engine")
		if o.logger == nil {
			o.logger = slog.Default()
		}
	}

	g := &Graph{
		id:     uuid.NewString(),
		byName: make(map[string]*node),
		done:   make(chan struct{}),
	}
	g.logger = o.logger.With("graph_id", g.id)

	var errs []error
	configError := func(format string, args ...any) {
		errs = append(errs, errors.Newf(format, args...).
			Component("engine").
			Category(errors.CategoryConfiguration).
			Build())
	}

	// Instantiate components.
	for _, decl := range desc.Components {
		if decl.Name == "" {
			configError("component of type %q has no instance name", decl.Type)
			continue
		}
		if _, dup := g.byName[decl.Name]; dup {
			configError("duplicate component instance name %q", decl.Name)
			continue
		}
		reg, err := Lookup(decl.Type)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		worker := reg.New()
		initial, err := worker.Spec().Params.CoerceAll(decl.Params)
		if err != nil {
			errs = append(errs, errors.Newf("component %q: %w", decl.Name, err).
				Component("engine").
				Category(errors.CategoryConfiguration).
				Build())
			continue
		}
		n := newNode(decl.Name, decl.Type, worker, initial, g.logger, o.metrics, o.poolConfig)
		g.nodes = append(g.nodes, n)
		g.byName[decl.Name] = n
	}

	// Wire edges.
	adjacency := make(map[string][]string)
	for _, edge := range desc.Edges {
		from, ferr := parseEndpoint(edge.From, PortOutput)
		to, terr := parseEndpoint(edge.To, PortInput)
		if ferr != nil {
			configError("edge %q -> %q: %v", edge.From, edge.To, ferr)
		}
		if terr != nil {
			configError("edge %q -> %q: %v", edge.From, edge.To, terr)
		}
		if ferr != nil || terr != nil {
			continue
		}

		producer, ok := g.byName[from.instance]
		if !ok {
			configError("edge from unknown component %q", from.instance)
			continue
		}
		consumer, ok := g.byName[to.instance]
		if !ok {
			configError("edge to unknown component %q", to.instance)
			continue
		}
		out, ok := producer.outputs[from.port]
		if !ok {
			configError("component %q has no output port %q", from.instance, from.port)
			continue
		}
		in, ok := consumer.inputs[to.port]
		if !ok {
			configError("component %q has no input port %q", to.instance, to.port)
			continue
		}
		if in.Connected() {
			configError("input %s already has a producer", to)
			continue
		}

		conn := NewConnection(o.queueCapacity)
		out.connect(conn)
		in.conn = conn
		adjacency[from.instance] = append(adjacency[from.instance], to.instance)
	}

	// Required wiring. The per-node check runs again at Start; doing it
	// here lets one Build report every violation together.
	for _, n := range g.nodes {
		for _, ps := range n.spec.Inputs {
			if !ps.Optional && !n.inputs[ps.Name].Connected() {
				configError("component %q: required input %q is not connected", n.name, ps.Name)
			}
		}
		for _, ps := range n.spec.Outputs {
			if !ps.Optional && !n.outputs[ps.Name].Connected() {
				configError("component %q: required output %q is not connected", n.name, ps.Name)
			}
		}
	}

	if cycle := findCycle(g.byName, adjacency); len(cycle) > 0 {
		configError("graph contains a cycle through %v", cycle)
	}

	if len(errs) > 0 {
		g.closePools()
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// findCycle runs Kahn's algorithm over the instance adjacency and returns
// the instances left on a cycle, or nil for a valid DAG.
func findCycle(nodes map[string]*node, adjacency map[string][]string) []string {
	indegree := make(map[string]int, len(nodes))
	for name := range nodes {
		indegree[name] = 0
	}
	for _, succs := range adjacency {
		for _, s := range succs {
			indegree[s]++
		}
	}
	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, s := range adjacency[name] {
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if visited == len(nodes) {
		return nil
	}
	var cycle []string
	for name, deg := range indegree {
		if deg > 0 {
			cycle = append(cycle, name)
		}
	}
	return cycle
}

// ID returns the per-run graph identifier carried in logs and metrics.
func (g *Graph) ID() string { return g.id }

// Start initializes every component and launches one goroutine per
// component. A component that fails initialization aborts the start before
// any goroutine runs.
func (g *Graph) Start() error {
	if !g.started.CompareAndSwap(false, true) {
		return errors.NewStd("graph already started")
	}

	var errs []error
	for _, n := range g.nodes {
		if err := n.init(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		g.closePools()
		close(g.done)
		return errors.Join(errs...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	for _, n := range g.nodes {
		g.wg.Add(1)
		go func(n *node) {
			defer g.wg.Done()
			n.run(ctx)
		}(n)
	}
	go func() {
		g.wg.Wait()
		cancel()
		close(g.done)
	}()
	g.logger.Info("graph started", "components", len(g.nodes))
	return nil
}

// Wait blocks until every component has stopped, then returns the joined
// fatal errors of any components that failed, or nil for a clean drain.
func (g *Graph) Wait() error {
	<-g.done
	var errs []error
	for _, n := range g.nodes {
		if n.runErr != nil {
			errs = append(errs, n.runErr)
		}
	}
	return errors.Join(errs...)
}

// Stop asks every source to end its stream, letting end-of-stream propagate
// so the graph drains cooperatively, and waits up to timeout for every
// component to stop. On timeout the shared context is cancelled, the only
// forced-cancellation path, and a timeout error is returned.
func (g *Graph) Stop(timeout time.Duration) error {
	if !g.started.Load() {
		g.closePools()
		return nil
	}
	for _, n := range g.nodes {
		if n.isSource() {
			n.stopReq.Store(true)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-g.done:
		g.logger.Info("graph drained")
		return nil
	case <-timer.C:
	}

	g.logger.Error("graph failed to drain, forcing cancellation", "timeout", timeout)
	g.cancel()
	<-g.done
	return errors.DrainTimeoutError(timeout)
}

// SetParameter updates one parameter of a running component. Safe to call
// at any time; the component observes the change at its next iteration.
func (g *Graph) SetParameter(instance, name string, value any) error {
	return g.SetParameters(instance, map[string]any{name: value})
}

// SetParameters atomically updates several parameters of one component:
// an iteration observes all of them or none.
func (g *Graph) SetParameters(instance string, values map[string]any) error {
	n, ok := g.byName[instance]
	if !ok {
		return errors.Newf("unknown component instance %q", instance).
			Component("engine").
			Category(errors.CategoryNotFound).
			Build()
	}
	n.config.Update(values)
	return nil
}

// Worker returns the algorithm object of an instance, so callers can
// inspect terminal components (such as recorders) after a run.
func (g *Graph) Worker(instance string) (Worker, error) {
	n, ok := g.byName[instance]
	if !ok {
		return nil, errors.Newf("unknown component instance %q", instance).
			Component("engine").
			Category(errors.CategoryNotFound).
			Build()
	}
	return n.worker, nil
}

// Instances returns every component instance name in description order.
func (g *Graph) Instances() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.name
	}
	return names
}

// State returns the lifecycle state of an instance, or StateStopped for
// unknown names.
func (g *Graph) State(instance string) State {
	if n, ok := g.byName[instance]; ok {
		return n.State()
	}
	return StateStopped
}

// TrimPools drops every free buffer in every output port pool, releasing
// memory back to the runtime. Invoked by the resource monitor under memory
// pressure.
func (g *Graph) TrimPools() {
	for _, n := range g.nodes {
		for _, port := range n.outputs {
			port.Pool().Trim()
		}
	}
	g.logger.Info("buffer pools trimmed")
}

// PoolStats sums buffer pool statistics across the graph.
func (g *Graph) PoolStats() frame.PoolStats {
	var total frame.PoolStats
	for _, n := range g.nodes {
		for _, port := range n.outputs {
			s := port.Pool().Stats()
			total.Outstanding += s.Outstanding
			total.Free += s.Free
			total.Hits += s.Hits
			total.Misses += s.Misses
		}
	}
	return total
}

func (g *Graph) closePools() {
	for _, n := range g.nodes {
		for _, port := range n.outputs {
			port.Pool().Close()
		}
	}
}
