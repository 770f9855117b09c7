// framix is a dataflow execution engine for experimenting with picture-
// and video-processing algorithms: components wired into a DAG exchange
// streamed frames while running concurrently.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jlammi/framix/cmd"
	"github.com/jlammi/framix/internal/buildinfo"
	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/logging"
	"github.com/jlammi/framix/internal/telemetry"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init()
	if settings.Log.Enabled {
		closeLog, err := logging.EnableFileOutput(settings.Log.Path, slog.LevelDebug)
		if err != nil {
			logging.Warn("file logging disabled", "path", settings.Log.Path, "error", err)
		} else {
			defer func() { _ = closeLog() }()
		}
	}

	build := buildinfo.New()
	if err := telemetry.Init(settings, build); err != nil {
		logging.Warn("telemetry disabled", "error", err)
	}
	defer telemetry.Flush(2 * time.Second)

	if err := cmd.RootCommand(settings, build).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
