package metrics

import (
	"context"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of jobs and chunk steps.
type Tracer interface {
	// StartJobSpan starts a span covering a whole job.
	//
	// Returns: A context with the new span set, and a function to end the span.
	StartJobSpan(ctx context.Context, jobID, jobName string) (context.Context, func())

	// StartChunkSpan starts a span for one chunk step, nested in the job span carried by ctx.
	StartChunkSpan(ctx context.Context, chunk model.Chunk) (context.Context, func())

	// RecordError records an error in the current span.
	//
	// module: The component where the error occurred (e.g., "source", "executor").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	//
	// attributes: e.g. `map[string]interface{}{"item_id": "123", "outcome": "failed"}`
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
