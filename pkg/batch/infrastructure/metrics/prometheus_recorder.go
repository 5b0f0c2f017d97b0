package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
// It owns a private registry so several recorders can coexist in one process.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job Metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobCounter         *prometheus.CounterVec
	jobsRunning        *prometheus.GaugeVec

	// Chunk Metrics
	chunkDurationSeconds *prometheus.HistogramVec
	chunkCounter         *prometheus.CounterVec

	// Item Metrics
	itemCounter *prometheus.CounterVec

	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idbatch_job_duration_seconds",
			Help:    "Duration of jobs from start to finish.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "success"}),
		jobCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idbatch_job_total",
			Help: "Total number of finished jobs.",
		}, []string{"job_name", "success"}),
		jobsRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idbatch_jobs_running",
			Help: "Number of jobs currently running.",
		}, []string{"job_name"}),
		chunkDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idbatch_chunk_duration_seconds",
			Help:    "Duration of chunk steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		chunkCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idbatch_chunk_total",
			Help: "Total number of chunk steps by status.",
		}, []string{"job_name", "status"}),
		itemCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idbatch_item_total",
			Help: "Total number of processed items by outcome.",
		}, []string{"job_name", "outcome"}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idbatch_operation_duration_seconds",
			Help:    "Duration of named engine operations such as source resolution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "job_name"}),
	}

	registry.MustRegister(
		r.jobDurationSeconds,
		r.jobCounter,
		r.jobsRunning,
		r.chunkDurationSeconds,
		r.chunkCounter,
		r.itemCounter,
		r.operationDurationSeconds,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, jobName string) {
	r.jobsRunning.WithLabelValues(jobName).Inc()
	logger.Debugf("Metrics: Job '%s' started.", jobName)
}

func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, result *model.JobResult) {
	success := strconv.FormatBool(result.Success)
	r.jobsRunning.WithLabelValues(result.JobName).Dec()
	r.jobCounter.WithLabelValues(result.JobName, success).Inc()
	r.jobDurationSeconds.WithLabelValues(result.JobName, success).Observe(result.Elapsed.Seconds())
	logger.Debugf("Metrics: Job '%s' ended. Duration: %.3fs", result.JobName, result.Elapsed.Seconds())
}

func (r *PrometheusRecorder) RecordChunk(ctx context.Context, jobName string, chunk model.Chunk, duration time.Duration, err error) {
	status := chunkStatus(err)
	r.chunkCounter.WithLabelValues(jobName, status).Inc()
	r.chunkDurationSeconds.WithLabelValues(jobName, status).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome) {
	r.itemCounter.WithLabelValues(jobName, outcome.String()).Inc()
}

// RecordDuration records the execution time of a named operation. Only the job_name tag
// becomes a label; other tags are dropped to keep the label set fixed.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDurationSeconds.WithLabelValues(name, tags["job_name"]).Observe(duration.Seconds())
}

func chunkStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
