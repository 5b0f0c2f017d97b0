package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

// OTelMetricRecorder records batch metrics through an OpenTelemetry MeterProvider.
type OTelMetricRecorder struct {
	jobs              metric.Int64Counter
	jobsRunning       metric.Int64UpDownCounter
	jobDuration       metric.Float64Histogram
	chunks            metric.Int64Counter
	chunkDuration     metric.Float64Histogram
	items             metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewOTelMetricRecorder creates the instruments on a meter of provider.
func NewOTelMetricRecorder(provider metric.MeterProvider) (*OTelMetricRecorder, error) {
	meter := provider.Meter(instrumentationName)
	r := &OTelMetricRecorder{}
	var err error

	if r.jobs, err = meter.Int64Counter("idbatch.job.count", metric.WithDescription("Finished jobs.")); err != nil {
		return nil, err
	}
	if r.jobsRunning, err = meter.Int64UpDownCounter("idbatch.job.running", metric.WithDescription("Jobs currently running.")); err != nil {
		return nil, err
	}
	if r.jobDuration, err = meter.Float64Histogram("idbatch.job.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.chunks, err = meter.Int64Counter("idbatch.chunk.count", metric.WithDescription("Chunk steps by status.")); err != nil {
		return nil, err
	}
	if r.chunkDuration, err = meter.Float64Histogram("idbatch.chunk.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.items, err = meter.Int64Counter("idbatch.item.count", metric.WithDescription("Processed items by outcome.")); err != nil {
		return nil, err
	}
	if r.operationDuration, err = meter.Float64Histogram("idbatch.operation.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OTelMetricRecorder) RecordJobStart(ctx context.Context, jobName string) {
	r.jobsRunning.Add(ctx, 1, metric.WithAttributes(attribute.String("job_name", jobName)))
}

func (r *OTelMetricRecorder) RecordJobEnd(ctx context.Context, result *model.JobResult) {
	name := attribute.String("job_name", result.JobName)
	r.jobsRunning.Add(ctx, -1, metric.WithAttributes(name))
	attrs := metric.WithAttributes(name, attribute.Bool("success", result.Success))
	r.jobs.Add(ctx, 1, attrs)
	r.jobDuration.Record(ctx, result.Elapsed.Seconds(), attrs)
}

func (r *OTelMetricRecorder) RecordChunk(ctx context.Context, jobName string, chunk model.Chunk, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("job_name", jobName), attribute.String("status", chunkStatus(err)))
	r.chunks.Add(ctx, 1, attrs)
	r.chunkDuration.Record(ctx, duration.Seconds(), attrs)
}

func (r *OTelMetricRecorder) RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome) {
	r.items.Add(ctx, 1, metric.WithAttributes(attribute.String("job_name", jobName), attribute.String("outcome", outcome.String())))
}

func (r *OTelMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String("operation", name))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	r.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

var _ metrics.MetricRecorder = (*OTelMetricRecorder)(nil)
