package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/metrics"
	"github.com/docsmith/renderci/internal/run"
	"github.com/docsmith/renderci/internal/watch"
)

// WatchCmd implements the 'watch' command: one full run, then re-render
// changed files until interrupted.
type WatchCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address" placeholder:"HOST:PORT"`
	Schedule    string `help:"Interval between periodic full re-renders (for example 10m)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if w.MetricsAddr != "" {
		cfg.Watch.MetricsAddr = w.MetricsAddr
	}
	if w.Schedule != "" {
		cfg.Watch.Schedule = w.Schedule
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, err := run.New(cfg)
	if err != nil {
		return err
	}
	runner.WithStore(run.OpenHistory(cfg)).
		WithEmitter(run.ConnectEmitter(cfg)).
		WithPersistentCheckout()
	defer runner.Close()

	opts := watch.Options{
		Debounce: cfg.WatchDebounce(),
		Schedule: cfg.WatchSchedule(),
	}

	// Metrics only pay off in watch mode when something scrapes them.
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Watch.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		runner.WithRecorder(recorder)
		opts.MetricsAddr = cfg.Watch.MetricsAddr
		opts.MetricsHandler = metrics.HTTPHandler(reg)
	}

	if _, err := runner.Execute(ctx); err != nil {
		return err
	}

	files, err := runner.Discover()
	if err != nil {
		return err
	}

	watcher := watch.New(files, runner, opts)
	watcher.SetRecorder(recorder)
	return watcher.Run(ctx)
}
