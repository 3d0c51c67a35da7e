// Package metrics exposes the Prometheus gauges and counters the poller
// and each worker publish on their own metrics.port, grounded on the same
// promauto registration style used elsewhere in the ecosystem for
// worker-pool instrumentation.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the gauges and counters one process (poller or worker)
// reports, registered against its own registry so tests can instantiate
// more than one without colliding on the default global registry.
type Metrics struct {
	registry *prometheus.Registry

	ActiveGames   prometheus.Gauge
	ActivePlayers prometheus.Gauge

	UpdatesProcessed prometheus.Counter
	HandlerErrors    prometheus.Counter
}

// New builds a Metrics bundle with every series registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveGames: factory.NewGauge(prometheus.GaugeOpts{
			Name: "app_active_games",
			Help: "Number of games currently in progress across all chats.",
		}),
		ActivePlayers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "app_active_players",
			Help: "Number of participants currently seated in an active game.",
		}),
		UpdatesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_updates_processed_total",
			Help: "Total number of updates successfully dispatched to a handler.",
		}),
		HandlerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_handler_errors_total",
			Help: "Total number of handler invocations that returned an error.",
		}),
	}
}

// Serve starts the blocking HTTP exposition server on addr (typically
// ":<metrics.port>"). It returns once ctx is cancelled or the listener
// fails for a reason other than a clean shutdown.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
