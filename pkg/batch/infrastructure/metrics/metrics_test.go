package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/fx/fxtest"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	coremetrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder()
	ctx := context.Background()
	chunk := model.Chunk{IDs: model.Identifiers("1", "2"), Index: 1, TotalItems: 2}

	r.RecordJobStart(ctx, "nightly")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobsRunning.WithLabelValues("nightly")))

	r.RecordChunk(ctx, "nightly", chunk, 20*time.Millisecond, nil)
	r.RecordChunk(ctx, "nightly", chunk, time.Millisecond, errors.New("cancelled"))
	r.RecordItemOutcome(ctx, "nightly", model.OutcomeSucceeded)
	r.RecordItemOutcome(ctx, "nightly", model.OutcomeSucceeded)
	r.RecordItemOutcome(ctx, "nightly", model.OutcomeFailed)
	r.RecordDuration(ctx, "source.resolve", time.Second, map[string]string{"job_name": "nightly", "extra": "dropped"})
	r.RecordJobEnd(ctx, &model.JobResult{JobName: "nightly", Success: false, Elapsed: 2 * time.Second})

	assert.Equal(t, 0.0, testutil.ToFloat64(r.jobsRunning.WithLabelValues("nightly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobCounter.WithLabelValues("nightly", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.chunkCounter.WithLabelValues("nightly", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.chunkCounter.WithLabelValues("nightly", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.itemCounter.WithLabelValues("nightly", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.itemCounter.WithLabelValues("nightly", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDurationSeconds))
}

func TestMetricsServerServesRegistry(t *testing.T) {
	r := NewPrometheusRecorder()
	r.RecordItemOutcome(context.Background(), "nightly", model.OutcomeIgnored)

	s := NewMetricsServer("127.0.0.1:0", r.GetRegistry())
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `idbatch_item_total{job_name="nightly",outcome="ignored"} 1`)
}

func TestOpenTelemetryTracerNestsChunkSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := NewOpenTelemetryTracer(tp)
	ctx := context.Background()

	jobCtx, endJob := tr.StartJobSpan(ctx, "job-1", "nightly")
	chunkCtx, endChunk := tr.StartChunkSpan(jobCtx, model.Chunk{IDs: model.Identifiers("1"), Index: 1, TotalItems: 1})
	tr.RecordEvent(chunkCtx, "item.failed", map[string]interface{}{"item_id": "1", "attempt": 2})
	tr.RecordError(chunkCtx, "executor", errors.New("boom"))
	endChunk()
	endJob()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	chunk, job := spans[0], spans[1]
	assert.Equal(t, "chunk 1", chunk.Name())
	assert.Equal(t, "job nightly", job.Name())
	assert.Equal(t, job.SpanContext().SpanID(), chunk.Parent().SpanID())
	assert.Equal(t, codes.Error, chunk.Status().Code)
	assert.Contains(t, job.Attributes(), attribute.String("job.id", "job-1"))

	events := chunk.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "item.failed", events[0].Name)
	assert.Equal(t, []attribute.KeyValue{attribute.Int("attempt", 2), attribute.String("item_id", "1")}, events[0].Attributes)
	assert.Equal(t, "exception", events[1].Name)
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestOTelMetricRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, err := NewOTelMetricRecorder(mp)
	require.NoError(t, err)
	ctx := context.Background()

	r.RecordJobStart(ctx, "nightly")
	r.RecordChunk(ctx, "nightly", model.Chunk{Index: 1}, time.Millisecond, nil)
	r.RecordItemOutcome(ctx, "nightly", model.OutcomeSucceeded)
	r.RecordItemOutcome(ctx, "nightly", model.OutcomeIgnored)
	r.RecordDuration(ctx, "source.resolve", time.Millisecond, map[string]string{"job_name": "nightly"})
	r.RecordJobEnd(ctx, &model.JobResult{JobName: "nightly", Success: true, Elapsed: time.Second})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(1), sumOf(t, rm, "idbatch.job.count"))
	assert.Equal(t, int64(0), sumOf(t, rm, "idbatch.job.running"))
	assert.Equal(t, int64(1), sumOf(t, rm, "idbatch.chunk.count"))
	assert.Equal(t, int64(2), sumOf(t, rm, "idbatch.item.count"))
}

func TestBackendSelection(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	tracing := &config.TracingConfig{ServiceName: "idbatch"}

	rec, err := NewMetricRecorder(BackendParams{Lifecycle: lc, Metrics: &config.MetricsConfig{Backend: "none"}, Tracing: tracing})
	require.NoError(t, err)
	assert.IsType(t, &coremetrics.NoOpMetricRecorder{}, rec)

	rec, err = NewMetricRecorder(BackendParams{Lifecycle: lc, Metrics: &config.MetricsConfig{Backend: "prometheus"}, Tracing: tracing})
	require.NoError(t, err)
	assert.IsType(t, &PrometheusRecorder{}, rec)

	_, err = NewMetricRecorder(BackendParams{Lifecycle: lc, Metrics: &config.MetricsConfig{Backend: "statsd"}, Tracing: tracing})
	assert.Error(t, err)

	tr, err := NewTracer(BackendParams{Lifecycle: lc, Metrics: &config.MetricsConfig{}, Tracing: tracing})
	require.NoError(t, err)
	assert.IsType(t, &coremetrics.NoOpTracer{}, tr)

	lc.RequireStart().RequireStop()
}
