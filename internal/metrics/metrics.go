// Package metrics exposes Prometheus collectors for the command loop.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "highway"

// Metrics groups the collectors, registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// commands counts processed commands by name and outcome
	commands *prometheus.CounterVec

	stations prometheus.Gauge
	cars     prometheus.Gauge

	// pathHops tracks the number of stations on each emitted route
	pathHops prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed by command and outcome",
		}, []string{"command", "outcome"}),
		stations: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations",
			Help:      "Live stations",
		}),
		cars: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cars",
			Help:      "Cars parked across live stations",
		}),
		pathHops: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_hops",
			Help:      "Stations on each planned route",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1 to 2048
		}),
	}
}

// ObserveCommand counts one command with its outcome.
func (m *Metrics) ObserveCommand(command, outcome string) {
	m.commands.WithLabelValues(command, outcome).Inc()
}

// SetSize records the registry size.
func (m *Metrics) SetSize(stations, cars int) {
	m.stations.Set(float64(stations))
	m.cars.Set(float64(cars))
}

// ObservePath records the length of an emitted route.
func (m *Metrics) ObservePath(stations int) {
	m.pathHops.Observe(float64(stations))
}

// WatchArena registers a gauge reporting the slots used in the named pool.
func (m *Metrics) WatchArena(pool string, used func() int) {
	promauto.With(m.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "arena_slots_used",
		Help:        "Arena slots handed out, by pool",
		ConstLabels: prometheus.Labels{"pool": pool},
	}, func() float64 { return float64(used()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
