package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Kopyshevskiy/highway-path-planner/internal/arena"
	"github.com/Kopyshevskiy/highway-path-planner/internal/config"
	"github.com/Kopyshevskiy/highway-path-planner/internal/logging"
	"github.com/Kopyshevskiy/highway-path-planner/internal/metrics"
	"github.com/Kopyshevskiy/highway-path-planner/internal/planner"
	"github.com/Kopyshevskiy/highway-path-planner/internal/protocol"
	"github.com/Kopyshevskiy/highway-path-planner/internal/station"
)

// app wires one registry, its planner and the command loop.
type app struct {
	cfg        config.Config
	log        *slog.Logger
	reg        *station.Registry
	metrics    *metrics.Metrics
	dispatcher *protocol.Dispatcher
}

func newApp(cfg config.Config, logOut io.Writer) *app {
	log := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	c := cfg.Capacities
	reg := station.New(station.NewPools(c.Stations, c.CarParks, c.Cars))
	pl := planner.New(c.PathNodes)

	// Scrapes read arena usage from the metrics goroutine; Len is atomic.
	m := metrics.New()
	pools := reg.Pools()
	m.WatchArena(pools.Stations.Name(), pools.Stations.Len)
	m.WatchArena(pools.Parks.Name(), pools.Parks.Len)
	m.WatchArena(pools.Cars.Name(), pools.Cars.Len)
	m.WatchArena(pl.Hops().Name(), pl.Hops().Len)

	return &app{
		cfg:     cfg,
		log:     log,
		reg:     reg,
		metrics: m,
		dispatcher: protocol.NewDispatcher(reg, pl, protocol.Options{
			Metrics:    m,
			Logger:     log,
			Verify:     cfg.Verify,
			Unbuffered: cfg.Output.Unbuffered,
		}),
	}
}

// run processes commands until in is exhausted or ctx is done.
func (a *app) run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := a.cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, addr, a.log); err != nil {
				a.log.Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
	}

	a.log.Debug("starting",
		"stations_cap", a.cfg.Capacities.Stations,
		"cars_cap", a.cfg.Capacities.Cars,
		"verify", a.cfg.Verify)

	err := a.dispatcher.Run(ctx, in, out)
	switch {
	case errors.Is(err, arena.ErrCapacityExceeded):
		a.log.Error("arena exhausted, aborting", "error", err)
	case err != nil:
		a.log.Error("command loop failed", "error", err)
	default:
		a.log.Info("done", "stations", a.reg.Len(), "cars", a.reg.Cars())
	}
	return err
}
