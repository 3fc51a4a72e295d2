package metrics

import "time"

// ResultLabel enumerates render result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for run, window and render metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: success|failed|canceled
	ObserveWindowDuration(d time.Duration)
	SetWindowSize(n int)
	ObserveRenderDuration(format string, d time.Duration, success bool)
	IncRenderResult(format string, result ResultLabel)
	AddFilesProcessed(n int)
	ObserveInstallDuration(d time.Duration, cacheHit bool)
	IncInstallRetry()
	IncWatchRebuild(trigger string) // trigger: change|create|schedule
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration)                  {}
func (NoopRecorder) IncRunOutcome(string)                              {}
func (NoopRecorder) ObserveWindowDuration(time.Duration)               {}
func (NoopRecorder) SetWindowSize(int)                                 {}
func (NoopRecorder) ObserveRenderDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncRenderResult(string, ResultLabel)               {}
func (NoopRecorder) AddFilesProcessed(int)                             {}
func (NoopRecorder) ObserveInstallDuration(time.Duration, bool)        {}
func (NoopRecorder) IncInstallRetry()                                  {}
func (NoopRecorder) IncWatchRebuild(string)                            {}
