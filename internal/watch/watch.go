// Package watch re-renders documentation as it changes on disk. A debounced
// fsnotify watcher feeds single-file rebuilds, an optional scheduler triggers
// periodic full runs, and Prometheus metrics are served when configured.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/docsmith/renderci/internal/discover"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/metrics"
)

// Rebuilder runs renders on behalf of the watcher.
type Rebuilder interface {
	// RebuildFile re-renders one changed input.
	RebuildFile(ctx context.Context, file discover.InputFile) error
	// RebuildAll re-runs discovery and renders everything that matches.
	RebuildAll(ctx context.Context) error
}

// Options tunes a Watcher.
type Options struct {
	Debounce       time.Duration // collapse rapid events per file
	Schedule       time.Duration // 0 disables periodic full runs
	MetricsAddr    string        // "" disables the metrics endpoint
	MetricsHandler http.Handler  // served at /metrics; required with MetricsAddr
}

// Watcher owns the fsnotify loop for one set of matched files.
type Watcher struct {
	opts      Options
	rebuilder Rebuilder
	recorder  metrics.Recorder

	mu      sync.Mutex
	matched map[string]discover.InputFile // keyed by absolute path
	timers  map[string]*time.Timer
}

// New builds a watcher over the files matched by the initial run.
func New(files []discover.InputFile, rebuilder Rebuilder, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 400 * time.Millisecond
	}
	matched := make(map[string]discover.InputFile, len(files))
	for _, f := range files {
		matched[f.Path] = f
	}
	return &Watcher{
		opts:      opts,
		rebuilder: rebuilder,
		recorder:  metrics.NoopRecorder{},
		matched:   matched,
		timers:    make(map[string]*time.Timer),
	}
}

// SetRecorder injects a metrics recorder (optional).
func (w *Watcher) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	w.recorder = r
}

// Run watches until ctx is canceled. The caller is expected to have completed
// an initial full run already.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	dirs := w.watchDirs()
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	slog.Info("watching for changes",
		logfields.Count(len(w.matched)),
		slog.Int("directories", len(dirs)),
		slog.String("debounce", w.opts.Debounce.String()))

	if w.opts.MetricsAddr != "" {
		stop, err := w.serveMetrics(w.opts.MetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	if w.opts.Schedule > 0 {
		stop, err := w.startScheduler(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("file watcher error", logfields.Error(err))
		}
	}
}

// watchDirs returns the unique parent directories of all matched files.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	for path := range w.matched {
		dir := filepath.Dir(path)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	file, known := w.matched[event.Name]
	w.mu.Unlock()

	switch {
	case known:
		w.scheduleRebuild(ctx, file)
	case event.Op&fsnotify.Create != 0 && strings.EqualFold(filepath.Ext(event.Name), ".md"):
		// A new markdown file may match the patterns; re-run discovery.
		slog.Debug("new markdown file detected", logfields.Path(event.Name))
		w.scheduleFullRebuild(ctx)
	}
}

// scheduleRebuild (re)arms the per-file debounce timer.
func (w *Watcher) scheduleRebuild(ctx context.Context, file discover.InputFile) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[file.Path]; ok {
		timer.Stop()
	}
	w.timers[file.Path] = time.AfterFunc(w.opts.Debounce, func() {
		w.recorder.IncWatchRebuild("change")
		slog.Info("re-rendering changed file", logfields.File(file.RelPath))
		if err := w.rebuilder.RebuildFile(ctx, file); err != nil {
			slog.Error("rebuild failed", logfields.File(file.RelPath), logfields.Error(err))
		}
	})
}

func (w *Watcher) scheduleFullRebuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	const key = "\x00full"
	if timer, ok := w.timers[key]; ok {
		timer.Stop()
	}
	w.timers[key] = time.AfterFunc(w.opts.Debounce, func() {
		w.recorder.IncWatchRebuild("create")
		if err := w.rebuilder.RebuildAll(ctx); err != nil {
			slog.Error("full rebuild failed", logfields.Error(err))
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, timer := range w.timers {
		timer.Stop()
	}
}

func (w *Watcher) startScheduler(ctx context.Context) (func(), error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.opts.Schedule),
		gocron.NewTask(func() {
			w.recorder.IncWatchRebuild("schedule")
			slog.Info("scheduled full re-render")
			if err := w.rebuilder.RebuildAll(ctx); err != nil {
				slog.Error("scheduled rebuild failed", logfields.Error(err))
			}
		}),
		gocron.WithName("full-rescan"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule full re-render: %w", err)
	}
	scheduler.Start()
	slog.Info("periodic full re-render enabled", slog.String("interval", w.opts.Schedule.String()))
	return func() { _ = scheduler.Shutdown() }, nil
}

func (w *Watcher) serveMetrics(addr string) (func(), error) {
	if w.opts.MetricsHandler == nil {
		return nil, fmt.Errorf("metrics address %s configured without a handler", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", w.opts.MetricsHandler)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
