// Package run executes the end-to-end render pipeline. All execution paths
// (render command, watch mode, tests) route through Runner.
package run

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docsmith/renderci/internal/batch"
	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/discover"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/events"
	"github.com/docsmith/renderci/internal/history"
	"github.com/docsmith/renderci/internal/incremental"
	"github.com/docsmith/renderci/internal/installer"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/metrics"
	"github.com/docsmith/renderci/internal/observability"
	"github.com/docsmith/renderci/internal/platform"
	"github.com/docsmith/renderci/internal/render"
	"github.com/docsmith/renderci/internal/report"
	"github.com/docsmith/renderci/internal/source"
	"github.com/docsmith/renderci/internal/verify"
	"github.com/docsmith/renderci/internal/workspace"
)

// Runner orchestrates one or more render runs over a resolved configuration:
// optional source checkout, discovery, incremental filtering, tool install,
// dispatch, and reporting. It also serves watch mode as its Rebuilder.
type Runner struct {
	cfg     *config.Config
	formats []config.Format
	opts    render.Options

	workspace          string
	ws                 *workspace.Manager
	persistentCheckout bool

	renderer render.Renderer
	recorder metrics.Recorder
	emitter  events.Emitter
	store    *history.Store
	reporter *report.Reporter
}

// New builds a Runner from validated configuration. The format list and the
// shared render options are resolved once here; later stages cannot hit
// configuration errors mid-run.
func New(cfg *config.Config) (*Runner, error) {
	formats, err := cfg.FormatList()
	if err != nil {
		return nil, err
	}
	opts, err := render.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:       cfg,
		formats:   formats,
		opts:      opts,
		workspace: cfg.Workspace,
		recorder:  metrics.NoopRecorder{},
		emitter:   events.Noop{},
		reporter:  report.New(os.Stdout),
	}, nil
}

// WithRenderer injects a renderer, bypassing tool installation. Used by tests
// and by rebuilds that reuse an already-installed tool.
func (r *Runner) WithRenderer(renderer render.Renderer) *Runner {
	r.renderer = renderer
	return r
}

// WithRecorder injects a metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	r.recorder = rec
	return r
}

// WithEmitter injects a run-event emitter.
func (r *Runner) WithEmitter(e events.Emitter) *Runner {
	if e == nil {
		e = events.Noop{}
	}
	r.emitter = e
	return r
}

// WithStore injects a history store. A nil store disables history recording
// and incremental lookups.
func (r *Runner) WithStore(s *history.Store) *Runner {
	r.store = s
	return r
}

// WithReporter replaces the CI output reporter (tests capture stdout here).
func (r *Runner) WithReporter(rep *report.Reporter) *Runner {
	r.reporter = rep
	return r
}

// WithPersistentCheckout keeps remote checkouts in a fixed directory under
// the workspace instead of an ephemeral one, so watch mode can keep watching
// the same paths across scheduled re-clones.
func (r *Runner) WithPersistentCheckout() *Runner {
	r.persistentCheckout = true
	return r
}

// Workspace returns the directory discovery runs against: the configured
// workspace, or the source checkout once one has been made.
func (r *Runner) Workspace() string {
	return r.workspace
}

// Close releases resources held across runs: the ephemeral checkout, the
// history store and the event connection.
func (r *Runner) Close() {
	if r.ws != nil {
		if err := r.ws.Cleanup(); err != nil {
			slog.Warn("workspace cleanup failed", logfields.Error(err))
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			slog.Warn("history store close failed", logfields.Error(err))
		}
	}
	r.emitter.Close()
}

// Execute performs one complete run. The returned summary is valid even on
// failure; FilesProcessed then reflects the windows merged before the abort.
func (r *Runner) Execute(ctx context.Context) (report.Summary, error) {
	start := time.Now()
	runID := report.NewRunID()
	ctx = observability.WithRunID(ctx, runID)

	sum := report.Summary{RunID: runID, StartedAt: start, Formats: r.formats}
	var records []history.FileRecord

	fail := func(err error) (report.Summary, error) {
		status := report.StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = report.StatusCanceled
		}
		return r.finish(ctx, sum, status, records, err)
	}

	r.emitter.Emit(ctx, events.Started(runID, r.workspace, r.formats))

	if err := r.PrepareWorkspace(ctx); err != nil {
		return fail(err)
	}

	stageCtx := observability.WithStage(ctx, "discovery")
	observability.InfoContext(stageCtx, "discovering input files",
		logfields.Path(r.workspace))
	files, err := r.discovery().Discover()
	if err != nil {
		return fail(err)
	}
	r.logTitles(stageCtx, files)

	if r.cfg.Incremental {
		files, records, err = incremental.NewFilter(r.store).Apply(ctx, files, r.formats)
		if err != nil {
			return fail(err)
		}
	}

	// Nothing to render: report the empty outputs and succeed without
	// touching the installer.
	if len(files) == 0 {
		observability.InfoContext(ctx, "no files to render")
		if err := r.reporter.WriteOutputs(report.Outputs{OutputFiles: []string{}}); err != nil {
			return fail(err)
		}
		return r.finish(ctx, sum, report.StatusSuccess, records, nil)
	}

	if err := r.ensureRenderer(ctx); err != nil {
		return fail(err)
	}

	stageCtx = observability.WithStage(ctx, "render")
	dispatcher := batch.NewDispatcher(r.renderer, r.OutputDir(), r.cfg.Concurrency)
	dispatcher.SetRecorder(r.recorder)
	result, err := dispatcher.Run(stageCtx, Requests(files, r.formats, r.opts))
	sum.FilesProcessed = result.FilesProcessed
	sum.OutputFiles = result.OutputFiles
	if err != nil {
		return fail(err)
	}

	if err := r.reporter.WriteOutputs(report.Outputs{
		FilesProcessed: result.FilesProcessed,
		OutputFiles:    result.OutputFiles,
	}); err != nil {
		return fail(err)
	}

	if r.cfg.Verify.Links {
		verify.LogProblems(verify.New(r.OutputDir()).Check(result.OutputFiles))
	}

	return r.finish(ctx, sum, report.StatusSuccess, records, nil)
}

// RebuildAll satisfies watch.Rebuilder with a complete re-run.
func (r *Runner) RebuildAll(ctx context.Context) error {
	_, err := r.Execute(ctx)
	return err
}

// RebuildFile satisfies watch.Rebuilder: one file, all formats, through the
// same dispatcher. No CI outputs or history for single-file rebuilds.
func (r *Runner) RebuildFile(ctx context.Context, file discover.InputFile) error {
	if err := r.ensureRenderer(ctx); err != nil {
		return err
	}
	dispatcher := batch.NewDispatcher(r.renderer, r.OutputDir(), r.cfg.Concurrency)
	dispatcher.SetRecorder(r.recorder)
	_, err := dispatcher.Run(ctx, Requests([]discover.InputFile{file}, r.formats, r.opts))
	return err
}

// Discover lists the files a run over the current workspace would process.
func (r *Runner) Discover() ([]discover.InputFile, error) {
	return r.discovery().Discover()
}

// discovery builds the file discovery for the current workspace. The output
// tree is excluded whenever it sits inside the workspace: markdown outputs
// would otherwise match markdown input patterns on the next run.
func (r *Runner) discovery() *discover.Discovery {
	d := discover.New(r.workspace, r.cfg.PatternList(), r.cfg.IgnoreList())
	rel, err := filepath.Rel(r.workspace, r.OutputDir())
	if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		d.SkipDir(filepath.ToSlash(rel))
	}
	return d
}

// OutputDir resolves the output root. Relative paths are anchored at the
// configured workspace, never at a remote checkout, so outputs survive
// checkout cleanup.
func (r *Runner) OutputDir() string {
	if filepath.IsAbs(r.cfg.OutputDir) {
		return r.cfg.OutputDir
	}
	return filepath.Join(r.cfg.Workspace, r.cfg.OutputDir)
}

// Requests expands discovered files into per-file render requests sharing one
// options value.
func Requests(files []discover.InputFile, formats []config.Format, opts render.Options) []batch.Request {
	requests := make([]batch.Request, 0, len(files))
	for _, f := range files {
		requests = append(requests, batch.Request{File: f, Formats: formats, Opts: opts})
	}
	return requests
}

// PrepareWorkspace clones the configured remote source and points the
// workspace at it. Local mode leaves the workspace untouched. Execute calls
// this itself; commands that only discover call it directly.
func (r *Runner) PrepareWorkspace(ctx context.Context) error {
	if r.cfg.Source == nil || r.cfg.Source.URL == "" {
		return nil
	}
	ctx = observability.WithStage(ctx, "source")

	if r.ws == nil {
		if r.persistentCheckout {
			r.ws = workspace.NewPersistentManager(r.cfg.Workspace, r.cfg.Source.Dir)
		} else {
			r.ws = workspace.NewManager("")
		}
		if err := r.ws.Create(); err != nil {
			return rcerrors.WorkspaceError("create", err)
		}
	}

	dir, err := source.Checkout(ctx, r.cfg.Source, r.ws.Path())
	if err != nil {
		return err
	}
	r.workspace = dir
	return nil
}

// ensureRenderer installs the tool on first use and wraps it in the
// production renderer. Injected renderers short-circuit this.
func (r *Runner) ensureRenderer(ctx context.Context) error {
	if r.renderer != nil {
		return nil
	}
	ctx = observability.WithStage(ctx, "install")

	target, err := platform.Current()
	if err != nil {
		return err
	}
	inst, err := installer.New(r.cfg, target)
	if err != nil {
		return err
	}
	inst.SetRecorder(r.recorder)

	binPath, err := inst.EnsureTool(ctx, r.cfg.ToolVersion)
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "render tool ready", logfields.Tool(binPath))
	r.renderer = render.NewToolRenderer(binPath)
	return nil
}

// logTitles emits per-file document titles, but only when debug logging is
// on: title extraction reads every input.
func (r *Runner) logTitles(ctx context.Context, files []discover.InputFile) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	for _, df := range discover.Describe(files) {
		observability.DebugContext(ctx, "input file",
			logfields.File(df.RelPath), slog.String("title", df.Title))
	}
}

// finish settles the summary, records it everywhere it is consumed, and hands
// the caller back the outcome.
func (r *Runner) finish(ctx context.Context, sum report.Summary, status string, records []history.FileRecord, err error) (report.Summary, error) {
	sum.Status = status
	sum.Duration = time.Since(sum.StartedAt)
	sum.Err = err

	r.recorder.ObserveRunDuration(sum.Duration)
	r.recorder.IncRunOutcome(status)
	sum.Log()
	r.recordHistory(ctx, sum, records)
	r.emitter.Emit(ctx, events.Finished(sum))
	return sum, err
}

// recordHistory persists the run and prunes old entries. History is
// best-effort; failures are logged and never change the run outcome.
func (r *Runner) recordHistory(ctx context.Context, sum report.Summary, records []history.FileRecord) {
	if r.store == nil {
		return
	}
	if err := r.store.Record(ctx, sum, records); err != nil {
		slog.Warn("failed to record run history", logfields.Error(err))
		return
	}
	if err := r.store.Prune(ctx, r.cfg.History.Keep); err != nil {
		slog.Warn("failed to prune run history", logfields.Error(err))
	}
}
