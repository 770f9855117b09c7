package observability

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jlammi/framix/internal/conf"
	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Endpoint serves the Prometheus /metrics and /healthz routes on the
// configured listen address.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	logger        *slog.Logger
}

// NewEndpoint creates an Endpoint from the application settings. It returns
// an error if the metrics endpoint is not enabled.
func NewEndpoint(settings *conf.Settings, m *Metrics) (*Endpoint, error) {
	if !settings.Metrics.Enabled {
		return nil, errors.NewStd("metrics endpoint not enabled in settings")
	}
	logger := logging.ForService("observability")
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		listenAddress: settings.Metrics.Listen,
		metrics:       m,
		logger:        logger,
	}, nil
}

// Start runs the HTTP server in its own goroutine and shuts it down
// gracefully when quitChan closes.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.logger.Info("metrics endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error("metrics HTTP server error", "error", err)
		}
	}()

	go e.gracefulShutdown(quitChan)
}

func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	e.logger.Info("stopping metrics endpoint")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		e.logger.Error("metrics endpoint shutdown error", "error", err)
	}
}
