// Package port defines the interfaces through which the batch engine talks to
// caller-supplied collaborators: the item source, the item processor and the listeners.
package port

import (
	"context"
	"time"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// ItemSource resolves the full ordered identifier sequence of a job.
//
// Implementations must be deterministic and side-effect free with respect to the job:
// calling GetAllItemIDs twice with the same arguments returns the same sequence.
// A resumed job relies on this to rebuild its chunks.
type ItemSource interface {
	// GetAllItemIDs returns the identifiers to process, in processing order.
	GetAllItemIDs(ctx context.Context, args model.JobArguments) ([]model.Identifier, error)
}

// ItemSourceFunc adapts a function to the ItemSource interface.
type ItemSourceFunc func(ctx context.Context, args model.JobArguments) ([]model.Identifier, error)

// GetAllItemIDs calls f.
func (f ItemSourceFunc) GetAllItemIDs(ctx context.Context, args model.JobArguments) ([]model.Identifier, error) {
	return f(ctx, args)
}

// ItemProcessor performs the unit of work for one identifier.
//
// The returned string classifies the outcome: "updated" is a success and any other
// value is treated as ignored. A returned error marks the item as failed; it never
// aborts the chunk.
type ItemProcessor interface {
	ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error)
}

// ItemProcessorFunc adapts a function to the ItemProcessor interface.
type ItemProcessorFunc func(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error)

// ExecuteOperation calls f.
func (f ItemProcessorFunc) ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
	return f(ctx, id, rc)
}

// JobListener observes the start and end of a job.
type JobListener interface {
	BeforeJob(ctx context.Context, jobID string, args model.JobArguments)
	AfterJob(ctx context.Context, result *model.JobResult)
}

// ChunkListener observes every chunk step.
type ChunkListener interface {
	BeforeChunk(ctx context.Context, chunk model.Chunk, rc *model.RunContext)
	// AfterChunk is called once the chunk step returns. err is non-nil only for a step error.
	AfterChunk(ctx context.Context, chunk model.Chunk, rc *model.RunContext, elapsed time.Duration, err error)
}

// ItemListener observes the classification of every item.
type ItemListener interface {
	// AfterItem is called after the item was recorded in the ledger. err is the processor's error, if any.
	AfterItem(ctx context.Context, id model.Identifier, outcome model.Outcome, err error)
}

// FinishReporter produces the terminal report of a job. It must never fail.
type FinishReporter interface {
	Report(ctx context.Context, result *model.JobResult)
}
