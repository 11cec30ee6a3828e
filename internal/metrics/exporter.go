// Package metrics provides Prometheus metrics export for the cycler
// queue service. Metric names follow Prometheus naming conventions.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/battlab/cycler-queue-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter collects and exposes job metrics for Prometheus scraping.
// It also implements scheduler.Observer so submission, cancellation
// and parse outcomes flow into counters.
type Exporter struct {
	store    storage.Store
	registry *prometheus.Registry

	// Jobs by canonical state.
	// Labels: state
	jobsByState *prometheus.GaugeVec

	// Active jobs per assigned pipeline.
	// Labels: pipeline
	jobsByPipeline *prometheus.GaugeVec

	// Submissions by outcome.
	// Labels: result ("ok" or "failed")
	submissionsTotal *prometheus.CounterVec

	// Cancellations by outcome.
	// Labels: result
	cancellationsTotal *prometheus.CounterVec

	// Scheduler output parse failures.
	// Labels: op
	parseFailuresTotal *prometheus.CounterVec

	// Timestamp of the last successful gauge collection.
	lastCollectTime prometheus.Gauge
}

// NewExporter creates a new metrics exporter over the given store.
func NewExporter(store storage.Store) *Exporter {
	e := &Exporter{
		store:    store,
		registry: prometheus.NewRegistry(),
		jobsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cycler_jobs",
			Help: "Number of jobs by canonical state.",
		}, []string{"state"}),
		jobsByPipeline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cycler_pipeline_jobs",
			Help: "Number of active jobs per assigned pipeline.",
		}, []string{"pipeline"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cycler_submissions_total",
			Help: "Total job submissions by outcome.",
		}, []string{"result"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cycler_cancellations_total",
			Help: "Total job cancellations by outcome.",
		}, []string{"result"}),
		parseFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cycler_scheduler_parse_failures_total",
			Help: "Total scheduler output parse failures by operation.",
		}, []string{"op"}),
		lastCollectTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cycler_last_collect_timestamp_seconds",
			Help: "Unix timestamp of the last successful metrics collection.",
		}),
	}

	e.registry.MustRegister(
		e.jobsByState,
		e.jobsByPipeline,
		e.submissionsTotal,
		e.cancellationsTotal,
		e.parseFailuresTotal,
		e.lastCollectTime,
	)

	return e
}

// Handler returns the HTTP handler serving the /metrics endpoint.
// Gauges are refreshed from storage on every scrape.
func (e *Exporter) Handler() http.Handler {
	inner := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Scrape errors must not break the endpoint; stale gauges are
		// better than none.
		_ = e.Collect(r.Context())
		inner.ServeHTTP(w, r)
	})
}

// Collect refreshes the state and pipeline gauges from storage.
func (e *Exporter) Collect(ctx context.Context) error {
	stateCounts, err := e.store.JobStateCounts(ctx)
	if err != nil {
		return err
	}
	e.jobsByState.Reset()
	for state, n := range stateCounts {
		e.jobsByState.WithLabelValues(string(state)).Set(float64(n))
	}

	pipelineCounts, err := e.store.PipelineJobCounts(ctx)
	if err != nil {
		return err
	}
	e.jobsByPipeline.Reset()
	for pipeline, n := range pipelineCounts {
		e.jobsByPipeline.WithLabelValues(pipeline).Set(float64(n))
	}

	e.lastCollectTime.Set(float64(time.Now().Unix()))
	return nil
}

// SubmissionResult implements scheduler.Observer.
func (e *Exporter) SubmissionResult(ok bool) {
	e.submissionsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// CancellationResult implements scheduler.Observer.
func (e *Exporter) CancellationResult(ok bool) {
	e.cancellationsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// ParseFailure implements scheduler.Observer.
func (e *Exporter) ParseFailure(op string) {
	e.parseFailuresTotal.WithLabelValues(op).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
