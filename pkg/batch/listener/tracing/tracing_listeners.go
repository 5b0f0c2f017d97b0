package tracing

import (
	"context"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

// TracingJobListener annotates the job span, which the orchestrator opens and closes,
// with the job's arguments and final counts.
type TracingJobListener struct {
	tracer metrics.Tracer
}

func NewTracingJobListener(tracer metrics.Tracer) *TracingJobListener {
	return &TracingJobListener{tracer: tracer}
}

func (l *TracingJobListener) BeforeJob(ctx context.Context, jobID string, args model.JobArguments) {
	l.tracer.RecordEvent(ctx, "job.started", map[string]interface{}{
		"job_id":     jobID,
		"limit":      args.Limit,
		"chunk_size": args.ChunkSize,
		"explicit":   args.HasExplicitIDs(),
	})
}

func (l *TracingJobListener) AfterJob(ctx context.Context, result *model.JobResult) {
	c := result.Ledger.Counts()
	attrs := map[string]interface{}{
		"success":   result.Success,
		"succeeded": c.Succeeded,
		"ignored":   c.Ignored,
		"failed":    c.Failed,
		"total":     c.Total,
	}
	if result.FailedOperation != nil {
		attrs["failed_operation"] = result.FailedOperation.Operation
		if result.FailedOperation.Err != nil {
			l.tracer.RecordError(ctx, "job", result.FailedOperation.Err)
		}
	}
	l.tracer.RecordEvent(ctx, "job.finished", attrs)
}

var _ port.JobListener = (*TracingJobListener)(nil)

// TracingItemListener records failed items as events on the chunk span.
type TracingItemListener struct {
	tracer metrics.Tracer
}

func NewTracingItemListener(tracer metrics.Tracer) *TracingItemListener {
	return &TracingItemListener{tracer: tracer}
}

func (l *TracingItemListener) AfterItem(ctx context.Context, id model.Identifier, outcome model.Outcome, err error) {
	if outcome != model.OutcomeFailed {
		return
	}
	attrs := map[string]interface{}{"item_id": string(id), "outcome": string(outcome)}
	if err != nil {
		attrs["error"] = err.Error()
	}
	l.tracer.RecordEvent(ctx, "item.failed", attrs)
}

var _ port.ItemListener = (*TracingItemListener)(nil)
