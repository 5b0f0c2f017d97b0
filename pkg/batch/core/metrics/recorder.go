package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics of batch execution.
// Backends (Prometheus, OpenTelemetry metrics) implement it in the infrastructure layer.
type MetricRecorder interface {
	// RecordJobStart records the start of a job.
	//
	// ctx: The context for the operation.
	// jobName: The logical name of the job.
	RecordJobStart(ctx context.Context, jobName string)

	// RecordJobEnd records the end of a job.
	//
	// ctx: The context for the operation.
	// result: The terminal result of the job.
	RecordJobEnd(ctx context.Context, result *model.JobResult)

	// RecordChunk records one completed chunk step.
	//
	// ctx: The context for the operation.
	// jobName: The logical name of the job.
	// chunk: The chunk that was executed.
	// duration: How long the step took.
	// err: The step error, or nil if the step completed.
	RecordChunk(ctx context.Context, jobName string, chunk model.Chunk, duration time.Duration, err error)

	// RecordItemOutcome records the classification of one item.
	RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome)

	// RecordDuration records the execution time of an arbitrary named operation.
	//
	// tags: Additional attributes, e.g. `{"source": "sql"}`.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
