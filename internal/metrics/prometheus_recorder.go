package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	runDuration     prom.Histogram
	runOutcomes     *prom.CounterVec
	windowDuration  prom.Histogram
	windowSize      prom.Gauge
	renderDuration  *prom.HistogramVec
	renderResults   *prom.CounterVec
	filesProcessed  prom.Counter
	installDuration *prom.HistogramVec
	installRetries  prom.Counter
	watchRebuilds   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "renderci",
			Name:      "run_duration_seconds",
			Help:      "Total render run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "renderci",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.windowDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "renderci",
			Name:      "window_duration_seconds",
			Help:      "Duration of dispatcher windows (admission to joint completion)",
			Buckets:   prom.DefBuckets,
		})
		pr.windowSize = prom.NewGauge(prom.GaugeOpts{
			Namespace: "renderci",
			Name:      "window_size",
			Help:      "Configured dispatcher window size for the current run",
		})
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "renderci",
			Name:      "render_duration_seconds",
			Help:      "Duration of individual tool invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"format", "result"})
		pr.renderResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "renderci",
			Name:      "render_results_total",
			Help:      "Render results by format and outcome",
		}, []string{"format", "result"})
		pr.filesProcessed = prom.NewCounter(prom.CounterOpts{
			Namespace: "renderci",
			Name:      "files_processed_total",
			Help:      "Input files fully processed across runs",
		})
		pr.installDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "renderci",
			Name:      "install_duration_seconds",
			Help:      "Tool resolution duration by cache outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"cache"})
		pr.installRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "renderci",
			Name:      "install_retries_total",
			Help:      "Download retry attempts during tool installation",
		})
		pr.watchRebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "renderci",
			Name:      "watch_rebuilds_total",
			Help:      "Watch-mode rebuilds by trigger",
		}, []string{"trigger"})
		reg.MustRegister(pr.runDuration, pr.runOutcomes, pr.windowDuration, pr.windowSize,
			pr.renderDuration, pr.renderResults, pr.filesProcessed, pr.installDuration,
			pr.installRetries, pr.watchRebuilds)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveWindowDuration(d time.Duration) {
	if p == nil || p.windowDuration == nil {
		return
	}
	p.windowDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWindowSize(n int) {
	if p == nil || p.windowSize == nil {
		return
	}
	p.windowSize.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRenderDuration(format string, d time.Duration, success bool) {
	if p == nil || p.renderDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.renderDuration.WithLabelValues(format, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(format string, result ResultLabel) {
	if p == nil || p.renderResults == nil {
		return
	}
	p.renderResults.WithLabelValues(format, string(result)).Inc()
}

func (p *PrometheusRecorder) AddFilesProcessed(n int) {
	if p == nil || p.filesProcessed == nil || n <= 0 {
		return
	}
	p.filesProcessed.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveInstallDuration(d time.Duration, cacheHit bool) {
	if p == nil || p.installDuration == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	p.installDuration.WithLabelValues(cache).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncInstallRetry() {
	if p == nil || p.installRetries == nil {
		return
	}
	p.installRetries.Inc()
}

func (p *PrometheusRecorder) IncWatchRebuild(trigger string) {
	if p == nil || p.watchRebuilds == nil {
		return
	}
	p.watchRebuilds.WithLabelValues(trigger).Inc()
}
