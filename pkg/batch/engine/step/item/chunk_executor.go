// Package item executes one chunk of identifiers against an item processor.
package item

import (
	"context"
	"fmt"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
	exception "github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const moduleName = "executor"

// ChunkExecutor runs the items of one chunk, in order, through an ItemProcessor.
//
// Per-item failures, whether returned errors or panics, are recorded as failed and never
// stop the chunk. Execute returns an error only when the step itself cannot run.
type ChunkExecutor struct {
	processor     port.ItemProcessor
	itemListeners []port.ItemListener
	tracer        metrics.Tracer
}

// Option configures a ChunkExecutor.
type Option func(*ChunkExecutor)

// WithItemListeners registers listeners notified after every item.
func WithItemListeners(listeners ...port.ItemListener) Option {
	return func(e *ChunkExecutor) {
		e.itemListeners = append(e.itemListeners, listeners...)
	}
}

// WithTracer sets the tracer used to record item failures.
func WithTracer(tracer metrics.Tracer) Option {
	return func(e *ChunkExecutor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewChunkExecutor creates a ChunkExecutor for processor.
func NewChunkExecutor(processor port.ItemProcessor, opts ...Option) *ChunkExecutor {
	e := &ChunkExecutor{
		processor: processor,
		tracer:    metrics.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute processes every identifier in chunk, updating rc and ledger as it goes.
//
// rc is initialised from chunk.TotalItems if this is the first chunk of the job.
// A returned error is always a step error. When the context is already done, or rc or
// ledger is missing, nothing is processed and rc and ledger are left untouched.
func (e *ChunkExecutor) Execute(ctx context.Context, chunk model.Chunk, rc *model.RunContext, ledger *model.OutcomeLedger) error {
	if e.processor == nil {
		return exception.NewStepError(moduleName, "no item processor configured", nil)
	}
	if rc == nil || ledger == nil {
		return exception.NewStepError(moduleName, fmt.Sprintf("chunk %d: run context and ledger are required", chunk.Index), nil)
	}
	if err := ctx.Err(); err != nil {
		return exception.NewStepError(moduleName, fmt.Sprintf("chunk %d not started", chunk.Index), err)
	}

	if rc.Init(chunk.TotalItems) {
		logger.Debugf("Run context initialised with %d items.", chunk.TotalItems)
	}

	logger.Debugf("Executing chunk %d (%d items).", chunk.Index, chunk.Len())
	for _, id := range chunk.IDs {
		result, err := e.invoke(ctx, id, rc)

		outcome := model.OutcomeFailed
		if err == nil {
			outcome = model.ClassifyResult(result)
		} else {
			err = exception.NewItemError(moduleName, fmt.Sprintf("item %s failed", id), err)
			logger.Warnf("Chunk %d: item %s failed: %v", chunk.Index, id, err)
			e.tracer.RecordError(ctx, moduleName, err)
		}

		if recErr := ledger.Record(id, outcome); recErr != nil {
			return exception.NewStepError(moduleName, fmt.Sprintf("chunk %d: cannot record item %s", chunk.Index, id), recErr)
		}
		rc.Advance(1, id)

		for _, l := range e.itemListeners {
			l.AfterItem(ctx, id, outcome, err)
		}
	}
	return nil
}

// invoke calls the processor and converts a panic into an error.
func (e *ChunkExecutor) invoke(ctx context.Context, id model.Identifier, rc *model.RunContext) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()
	return e.processor.ExecuteOperation(ctx, id, rc)
}
