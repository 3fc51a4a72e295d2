// Package batch implements the bounded render dispatcher. One job covers all
// requested formats for one input file; jobs run concurrently inside fixed
// windows of size K with a joint wait between windows.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/discover"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/metrics"
	"github.com/docsmith/renderci/internal/render"
)

// Request describes the rendering work for one input file. It is created
// once from resolved configuration and never mutated.
type Request struct {
	File    discover.InputFile
	Formats []config.Format
	Opts    render.Options
}

// JobResult is produced by one settled job: the file count it represents
// (always 1, for accounting uniformity) and the output paths produced before
// any failure.
type JobResult struct {
	Files   int
	Outputs []string
}

// Result accumulates merged job results. Only the dispatcher goroutine
// mutates it; jobs hand results back through their window slot.
type Result struct {
	FilesProcessed int
	OutputFiles    []string
}

// Dispatcher executes render jobs under a synchronous-barrier windowing
// policy: the window fills to K jobs, all of them are awaited together, their
// results merged in admission order, then the window clears for the next
// batch. Throughput is bounded by the slowest job in each window. That is a
// deliberate trade for a dispatcher with no shared mutable state between
// in-flight jobs and the accumulator; do not replace it with a sliding pool
// without revisiting the merge-order guarantees.
type Dispatcher struct {
	renderer  render.Renderer
	outputDir string
	window    int
	recorder  metrics.Recorder
}

// NewDispatcher creates a dispatcher writing outputs under outputDir.
// parallelism <= 0 means the runtime's available parallelism.
func NewDispatcher(renderer render.Renderer, outputDir string, parallelism int) *Dispatcher {
	return &Dispatcher{
		renderer:  renderer,
		outputDir: outputDir,
		window:    WindowSize(parallelism),
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder (optional).
func (d *Dispatcher) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	d.recorder = r
}

// WindowSize derives the window bound K from a parallelism figure: one less
// than the parallelism, floored at 1.
func WindowSize(parallelism int) int {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if k := parallelism - 1; k >= 1 {
		return k
	}
	return 1
}

// pending is one window slot. The owning goroutine writes result/err exactly
// once before wg.Done; the dispatcher reads only after the joint wait.
type pending struct {
	file   string
	result JobResult
	err    error
}

// Run drains the request list in order. On success it returns the merged
// result for all files. On the first failing window it returns the error of
// the first failed job (window order) together with the result merged from
// prior fully-settled windows; the failing window's partial outputs are
// discarded.
func (d *Dispatcher) Run(ctx context.Context, requests []Request) (Result, error) {
	result := Result{OutputFiles: make([]string, 0)}
	d.recorder.SetWindowSize(d.window)
	if len(requests) == 0 {
		slog.Info("no input files to render")
		return result, nil
	}

	slog.Info("dispatching render jobs",
		logfields.Count(len(requests)),
		logfields.Window(d.window))

	var wg sync.WaitGroup
	window := make([]*pending, 0, d.window)

	// flush performs the joint wait for the current window, then merges in
	// window array order, or returns the first error in that order.
	flush := func() error {
		if len(window) == 0 {
			return nil
		}
		start := time.Now()
		wg.Wait()
		d.recorder.ObserveWindowDuration(time.Since(start))

		for _, p := range window {
			if p.err != nil {
				slog.Error("render batch aborted",
					logfields.File(p.file),
					logfields.Error(p.err),
					slog.Int("files_processed", result.FilesProcessed))
				return p.err
			}
		}
		merged := 0
		for _, p := range window {
			result.FilesProcessed += p.result.Files
			result.OutputFiles = append(result.OutputFiles, p.result.Outputs...)
			merged += p.result.Files
		}
		d.recorder.AddFilesProcessed(merged)
		window = window[:0]
		return nil
	}

	for _, req := range requests {
		if len(window) == d.window {
			if err := flush(); err != nil {
				return result, err
			}
		}
		select {
		case <-ctx.Done():
			if err := flush(); err != nil {
				return result, err
			}
			return result, ctx.Err()
		default:
		}

		p := &pending{file: req.File.RelPath}
		window = append(window, p)
		wg.Add(1)
		go func(req Request, p *pending) {
			defer wg.Done()
			p.result, p.err = d.runJob(ctx, req)
		}(req, p)
	}
	if err := flush(); err != nil {
		return result, err
	}

	slog.Info("render batch complete",
		slog.Int("files_processed", result.FilesProcessed),
		slog.Int("output_files", len(result.OutputFiles)))
	return result, nil
}

// runJob renders every requested format for one file, sequentially. An output
// path is recorded only after its render succeeded; the first failure stops
// the format loop and returns the partial result alongside the error.
func (d *Dispatcher) runJob(ctx context.Context, req Request) (JobResult, error) {
	res := JobResult{Files: 1, Outputs: make([]string, 0, len(req.Formats))}
	for _, format := range req.Formats {
		outPath := d.outputPath(req.File.RelPath, format)

		// Concurrent jobs may share output subdirectories; MkdirAll is
		// idempotent so creation races are harmless.
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return res, rcerrors.Wrap(err, rcerrors.CategoryFileSystem, rcerrors.SeverityFatal,
				"failed to create output directory "+filepath.Dir(outPath))
		}

		start := time.Now()
		err := d.renderer.Render(ctx, req.File.Path, format, outPath, req.Opts)
		d.recorder.ObserveRenderDuration(string(format), time.Since(start), err == nil)
		if err != nil {
			d.recorder.IncRenderResult(string(format), metrics.ResultFailed)
			return res, rcerrors.RenderFailed(req.File.RelPath, string(format), err)
		}
		d.recorder.IncRenderResult(string(format), metrics.ResultSuccess)
		res.Outputs = append(res.Outputs, outPath)

		slog.Debug("format rendered",
			logfields.File(req.File.RelPath),
			logfields.Format(string(format)),
			logfields.Output(outPath))
	}
	return res, nil
}

// outputPath mirrors the input's relative location under the output root and
// applies the format's extension.
func (d *Dispatcher) outputPath(relPath string, format config.Format) string {
	rel := filepath.FromSlash(relPath)
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	return filepath.Join(d.outputDir, filepath.Dir(rel), base+"."+format.Extension())
}
