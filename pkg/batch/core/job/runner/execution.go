package runner

import (
	"context"
	"fmt"
	"time"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	exception "github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// JobExecution is one job in progress. It is an explicit iterator over the job's chunks:
// every call to Step runs the next chunk, so a host with a bounded time budget can stop
// between any two chunks and persist the run context and ledger.
//
// A JobExecution must not be stepped concurrently.
type JobExecution struct {
	orchestrator *JobOrchestrator

	id        string
	args      model.JobArguments
	state     model.JobState
	chunks    []model.Chunk
	next      int // 0-based position of the next chunk
	rc        *model.RunContext
	ledger    *model.OutcomeLedger
	startTime time.Time
	result    *model.JobResult

	// spanCtx carries the job span for the chunk spans started in Step.
	spanCtx context.Context
	endSpan func()
}

// ID returns the job identifier.
func (e *JobExecution) ID() string { return e.id }

// Arguments returns the job arguments.
func (e *JobExecution) Arguments() model.JobArguments { return e.args }

// State returns the current lifecycle state.
func (e *JobExecution) State() model.JobState { return e.state }

// RunContext returns the live run context. It is owned by the execution.
func (e *JobExecution) RunContext() *model.RunContext { return e.rc }

// Ledger returns the live outcome ledger. It is owned by the execution.
func (e *JobExecution) Ledger() *model.OutcomeLedger { return e.ledger }

// Chunks returns the job's chunks.
func (e *JobExecution) Chunks() []model.Chunk { return e.chunks }

// NextChunk returns the chunk the next Step will run.
func (e *JobExecution) NextChunk() (model.Chunk, bool) {
	if e.state.IsFinished() || e.next >= len(e.chunks) {
		return model.Chunk{}, false
	}
	return e.chunks[e.next], true
}

// Remaining returns the number of chunks that have not run yet.
func (e *JobExecution) Remaining() int {
	if e.state.IsFinished() {
		return 0
	}
	return len(e.chunks) - e.next
}

// Done reports whether the job has finished.
func (e *JobExecution) Done() bool { return e.state.IsFinished() }

// Result returns the terminal result, or nil while the job is still running.
func (e *JobExecution) Result() *model.JobResult { return e.result }

// Step runs the next chunk and reports whether more work remains.
//
// A step error, including a context cancelled before the chunk starts, halts the job:
// the remaining chunks stay unprocessed and the result names the halting chunk.
// After the last chunk Step finishes the job.
func (e *JobExecution) Step(ctx context.Context) bool {
	chunk, ok := e.NextChunk()
	if !ok {
		if !e.state.IsFinished() {
			e.finish(e.spanCtx)
		}
		return false
	}
	if e.state != model.JobStateExecuting {
		e.mustTransition(model.JobStateExecuting)
	}

	o := e.orchestrator
	stepCtx, endChunkSpan := o.tracer.StartChunkSpan(withValuesFrom(ctx, e.spanCtx), chunk)
	if err := e.runChunk(stepCtx, chunk); err != nil {
		o.tracer.RecordError(stepCtx, moduleName, err)
		endChunkSpan()
		logger.Errorf("Job '%s': chunk %d failed, halting: %v", o.name, chunk.Index, err)
		e.halt(e.spanCtx, model.NewFailedOperation(OperationExecuteChunk, chunk.Arguments(), err))
		return false
	}
	endChunkSpan()
	e.next++

	if saveErr := e.saveCheckpoint(stepCtx); saveErr != nil {
		logger.Errorf("Job '%s': checkpoint after chunk %d failed, halting: %v", o.name, chunk.Index, saveErr)
		e.halt(e.spanCtx, model.NewFailedOperation(OperationSaveCheckpoint, chunk.Arguments(), saveErr))
		return false
	}

	if e.next >= len(e.chunks) {
		e.finish(e.spanCtx)
		return false
	}
	return true
}

// runChunk runs chunk between its chunk listeners. A panic raised anywhere in the step,
// listeners included, is returned as a step error.
func (e *JobExecution) runChunk(ctx context.Context, chunk model.Chunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewStepError(moduleName, fmt.Sprintf("chunk %d panicked: %v", chunk.Index, r), nil)
		}
	}()

	o := e.orchestrator
	for _, l := range o.chunkListeners {
		l.BeforeChunk(ctx, chunk, e.rc)
	}

	start := o.now()
	err = o.executor.Execute(ctx, chunk, e.rc, e.ledger)
	elapsed := o.now().Sub(start)

	o.recorder.RecordChunk(ctx, o.name, chunk, elapsed, err)
	for _, l := range o.chunkListeners {
		l.AfterChunk(ctx, chunk, e.rc, elapsed, err)
	}
	return err
}

// saveCheckpoint persists the resumption state, if a repository is configured.
func (e *JobExecution) saveCheckpoint(ctx context.Context) error {
	repo := e.orchestrator.repository
	if repo == nil {
		return nil
	}
	cp := &model.Checkpoint{
		JobID:          e.id,
		JobName:        e.orchestrator.name,
		Arguments:      e.args,
		State:          e.state,
		NextChunkIndex: e.next + 1,
		RunContext:     e.rc.Clone(),
		Ledger:         e.ledger.Clone(),
		StartTime:      e.startTime,
		UpdatedAt:      e.orchestrator.now(),
	}
	if err := repo.SaveCheckpoint(ctx, cp); err != nil {
		return exception.NewStepError(moduleName, fmt.Sprintf("failed to save checkpoint of job %s", e.id), err)
	}
	return nil
}

// halt finishes the job as failed.
func (e *JobExecution) halt(ctx context.Context, failed *model.FailedOperation) {
	e.complete(ctx, failed)
}

// finish finishes the job as successful.
func (e *JobExecution) finish(ctx context.Context) {
	e.complete(ctx, nil)
}

// complete builds the result, reports it once and notifies the job listeners.
func (e *JobExecution) complete(ctx context.Context, failed *model.FailedOperation) {
	if e.state.IsFinished() {
		return
	}
	e.mustTransition(model.JobStateFinished)

	o := e.orchestrator
	end := o.now()
	e.result = &model.JobResult{
		JobID:           e.id,
		JobName:         o.name,
		Success:         failed == nil,
		Ledger:          e.ledger.Clone(),
		StartTime:       e.startTime,
		EndTime:         end,
		Elapsed:         end.Sub(e.startTime),
		FailedOperation: failed,
	}

	if o.reporter != nil {
		o.reporter.Report(ctx, e.result)
	}
	for _, l := range o.jobListeners {
		l.AfterJob(ctx, e.result)
	}
	o.recorder.RecordJobEnd(ctx, e.result)

	if e.result.Success && o.repository != nil {
		if err := o.repository.DeleteCheckpoint(ctx, e.id); err != nil {
			logger.Warnf("Job '%s': failed to delete checkpoint of job %s: %v", o.name, e.id, err)
		}
	}
	logger.Infof("Job '%s' (ID: %s) finished. Success: %t, Processed: %d", o.name, e.id, e.result.Success, e.ledger.Len())
	e.endSpan()
}

// mustTransition moves the execution to next. The orchestrator only asks for legal
// transitions, so a rejection is a programming error.
func (e *JobExecution) mustTransition(next model.JobState) {
	state, err := e.state.TransitionTo(next)
	if err != nil {
		panic(err)
	}
	e.state = state
}

// withValuesFrom returns a context with the deadline and cancellation of ctx and the
// values of values, so chunk spans nest under the job span while following the caller's
// cancellation.
func withValuesFrom(ctx, values context.Context) context.Context {
	if values == nil || values == ctx {
		return ctx
	}
	return valueContext{Context: ctx, values: values}
}

type valueContext struct {
	context.Context
	values context.Context
}

func (c valueContext) Value(key interface{}) interface{} {
	if v := c.values.Value(key); v != nil {
		return v
	}
	return c.Context.Value(key)
}
