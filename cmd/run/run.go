// Package run implements the "framix run" subcommand: execute a graph
// description until it drains or the run duration elapses.
package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlammi/framix/internal/components"
	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/engine"
	"github.com/jlammi/framix/internal/frame"
	"github.com/jlammi/framix/internal/logging"
	"github.com/jlammi/framix/internal/monitor"
	"github.com/jlammi/framix/internal/observability"
)

// Command creates the run command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		graphPath string
		duration  time.Duration
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a graph description to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(settings, graphPath, duration, record)
		},
	}

	cmd.Flags().StringVarP(&graphPath, "graph", "g", "", "Path to the YAML graph description")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop the graph after this long (0 runs until drained)")
	cmd.Flags().BoolVar(&record, "record", false, "Print the contents of every recorder after the run")
	_ = cmd.MarkFlagRequired("graph")

	return cmd
}

func execute(settings *conf.Settings, graphPath string, duration time.Duration, record bool) error {
	log := logging.ForService("run")

	desc, err := engine.LoadDescription(graphPath)
	if err != nil {
		return err
	}

	// Sink components resolve relative artifact paths against the
	// configured output directory.
	components.SetOutputDir(settings.Output.Path)

	opts := []engine.Option{
		engine.WithQueueCapacity(settings.Engine.QueueCapacity),
		engine.WithPoolConfig(frame.PoolConfig{MaxFreePerShape: settings.Pool.MaxFreePerShape}),
	}

	// Metrics endpoint, when enabled.
	var endpointWG sync.WaitGroup
	quit := make(chan struct{})
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return err
		}
		components.SetPictureMetrics(m.Picture)
		opts = append(opts, engine.WithMetrics(m.Engine))
		endpoint, err := observability.NewEndpoint(settings, m)
		if err != nil {
			return err
		}
		endpoint.Start(&endpointWG, quit)
	}
	defer func() {
		close(quit)
		endpointWG.Wait()
	}()

	graph, err := engine.Build(desc, opts...)
	if err != nil {
		return err
	}
	if err := graph.Start(); err != nil {
		return err
	}
	log.Info("pipeline running", "graph", graphPath, "graph_id", graph.ID())

	if settings.Monitor.Enabled {
		rm := monitor.NewResourceMonitor(settings)
		rm.Register(graph)
		rm.Start()
		defer rm.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- graph.Wait() }()

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err = <-done:
	case <-ctx.Done():
		log.Info("interrupted, stopping graph")
		err = graph.Stop(settings.Engine.StopTimeout)
	case <-timeout:
		log.Info("run duration elapsed, stopping graph")
		err = graph.Stop(settings.Engine.StopTimeout)
	}

	if record {
		dumpRecorders(graph)
	}

	stats := graph.PoolStats()
	fmt.Printf("run complete: %d buffers outstanding, %d free, %d pool hits, %d misses\n",
		stats.Outstanding, stats.Free, stats.Hits, stats.Misses)
	return err
}

// dumpRecorders prints the retained frames of every recorder in the graph,
// with the full audit trail of the final frame, then releases them.
func dumpRecorders(graph *engine.Graph) {
	for _, instance := range graph.Instances() {
		worker, err := graph.Worker(instance)
		if err != nil {
			continue
		}
		rec, ok := worker.(*components.Recorder)
		if !ok {
			continue
		}
		frames := rec.Frames()
		fmt.Printf("recorder %q: %d frames retained, end of stream: %v\n",
			instance, len(frames), rec.EndOfStream())
		for _, f := range frames {
			fmt.Printf("  frame %d: %s %s\n", f.Number(), f.Type(), f.Shape())
		}
		if n := len(frames); n > 0 {
			fmt.Printf("  audit of frame %d:\n%s\n",
				frames[n-1].Number(), frame.IndentBlock(frames[n-1].Meta().Audit()))
		}
		rec.Reset()
	}
}
