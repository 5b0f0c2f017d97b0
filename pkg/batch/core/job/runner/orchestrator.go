// Package runner drives a job from its arguments to its terminal result:
// source resolution, partitioning, sequential chunk steps and the finish protocol.
package runner

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
	"github.com/tigerroll/idbatch/pkg/batch/engine/step/item"
	"github.com/tigerroll/idbatch/pkg/batch/engine/step/partition"
	exception "github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const (
	moduleName = "orchestrator"

	// DefaultJobName is used when no job name is configured.
	DefaultJobName = "idbatch"

	// OperationGetAllItemIDs names the source call in a FailedOperation.
	OperationGetAllItemIDs = "ItemSource.GetAllItemIDs"
	// OperationExecuteChunk names a chunk step in a FailedOperation.
	OperationExecuteChunk = "ChunkExecutor.Execute"
	// OperationSaveCheckpoint names the checkpoint write that follows a chunk step.
	OperationSaveCheckpoint = "CheckpointRepository.SaveCheckpoint"
)

// JobOrchestrator is the top-level driver of a job. It holds the item source and the
// chunk executor built around the item processor, and creates one JobExecution per job.
//
// A JobOrchestrator is safe to reuse for many jobs; all job state lives in the JobExecution.
type JobOrchestrator struct {
	name           string
	source         port.ItemSource
	executor       *item.ChunkExecutor
	partitioner    *partition.Partitioner
	repository     repository.CheckpointRepository
	reporter       port.FinishReporter
	jobListeners   []port.JobListener
	chunkListeners []port.ChunkListener
	itemListeners  []port.ItemListener
	recorder       metrics.MetricRecorder
	tracer         metrics.Tracer
	now            func() time.Time
}

// Option configures a JobOrchestrator.
type Option func(*JobOrchestrator)

// WithJobName sets the logical job name.
func WithJobName(name string) Option {
	return func(o *JobOrchestrator) {
		if name != "" {
			o.name = name
		}
	}
}

// WithCheckpointRepository enables checkpointing after every chunk.
func WithCheckpointRepository(repo repository.CheckpointRepository) Option {
	return func(o *JobOrchestrator) { o.repository = repo }
}

// WithFinishReporter sets the reporter invoked once when a job finishes.
func WithFinishReporter(reporter port.FinishReporter) Option {
	return func(o *JobOrchestrator) { o.reporter = reporter }
}

// WithJobListeners registers job listeners, notified after the finish report.
func WithJobListeners(listeners ...port.JobListener) Option {
	return func(o *JobOrchestrator) { o.jobListeners = append(o.jobListeners, listeners...) }
}

// WithChunkListeners registers chunk listeners.
func WithChunkListeners(listeners ...port.ChunkListener) Option {
	return func(o *JobOrchestrator) { o.chunkListeners = append(o.chunkListeners, listeners...) }
}

// WithItemListeners registers item listeners, passed on to the chunk executor.
func WithItemListeners(listeners ...port.ItemListener) Option {
	return func(o *JobOrchestrator) { o.itemListeners = append(o.itemListeners, listeners...) }
}

// WithMetricRecorder sets the metric recorder.
func WithMetricRecorder(recorder metrics.MetricRecorder) Option {
	return func(o *JobOrchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithTracer sets the tracer used for job and chunk spans.
func WithTracer(tracer metrics.Tracer) Option {
	return func(o *JobOrchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *JobOrchestrator) { o.now = now }
}

// NewJobOrchestrator creates a JobOrchestrator for source and processor.
func NewJobOrchestrator(source port.ItemSource, processor port.ItemProcessor, opts ...Option) *JobOrchestrator {
	o := &JobOrchestrator{
		name:        DefaultJobName,
		source:      source,
		partitioner: partition.NewPartitioner(),
		recorder:    metrics.NewNoOpMetricRecorder(),
		tracer:      metrics.NewNoOpTracer(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.executor = item.NewChunkExecutor(processor,
		item.WithItemListeners(o.itemListeners...),
		item.WithTracer(o.tracer),
	)
	return o
}

// Name returns the logical job name.
func (o *JobOrchestrator) Name() string {
	return o.name
}

// Start begins a new job: it resolves the item source and partitions the identifiers.
//
// The returned execution is positioned before its first chunk. If the source fails, or it
// yields no identifiers, the execution is already finished and its Result is available.
func (o *JobOrchestrator) Start(ctx context.Context, args model.JobArguments) *JobExecution {
	exec := o.newExecution(ctx, model.NewID(), args, o.now())
	logger.Infof("Starting job '%s' (ID: %s). Arguments: %s", o.name, exec.id, args.String())
	o.notifyBeforeJob(exec.spanCtx, exec)

	ids, err := o.resolveSource(exec.spanCtx, args)
	if err != nil {
		exec.halt(exec.spanCtx, model.NewFailedOperation(OperationGetAllItemIDs, args.AsMap(), err))
		return exec
	}
	exec.mustTransition(model.JobStateSourceResolved)

	exec.chunks = o.partitioner.Partition(ids, args)
	exec.mustTransition(model.JobStatePartitioned)
	logger.Infof("Job '%s': %d of %d items split into %d chunks.", o.name, totalOf(exec.chunks), len(ids), len(exec.chunks))

	if len(exec.chunks) == 0 {
		exec.finish(exec.spanCtx)
		return exec
	}
	if err := exec.saveCheckpoint(exec.spanCtx); err != nil {
		exec.halt(exec.spanCtx, model.NewFailedOperation(OperationSaveCheckpoint, exec.chunks[0].Arguments(), err))
	}
	return exec
}

// Run starts a job and drives it to completion.
func (o *JobOrchestrator) Run(ctx context.Context, args model.JobArguments) *model.JobResult {
	exec := o.Start(ctx, args)
	for exec.Step(ctx) {
	}
	return exec.Result()
}

// Resume reloads the checkpoint of jobID and returns an execution positioned at the first
// chunk that did not complete.
//
// The identifier universe is resolved again with the stored arguments; the source must be
// deterministic for the chunks to line up. A mismatch between the stored progress and the
// new partition is reported as an error and the checkpoint is kept.
func (o *JobOrchestrator) Resume(ctx context.Context, jobID string) (*JobExecution, error) {
	if o.repository == nil {
		return nil, exception.NewStepError(moduleName, "resume requires a checkpoint repository", nil)
	}
	cp, err := o.repository.FindCheckpoint(ctx, jobID)
	if err != nil {
		return nil, exception.NewStepError(moduleName, "failed to load checkpoint for job "+jobID, err)
	}
	if cp.State.IsFinished() {
		return nil, exception.NewStepError(moduleName, "job "+jobID+" is already finished", nil)
	}

	exec := o.newExecution(ctx, cp.JobID, cp.Arguments, cp.StartTime)
	if cp.RunContext != nil {
		exec.rc = cp.RunContext.Clone()
	}
	if cp.Ledger != nil {
		exec.ledger = cp.Ledger.Clone()
	}
	ids, srcErr := o.resolveSource(exec.spanCtx, cp.Arguments)
	if srcErr == nil {
		exec.chunks = o.partitioner.Partition(ids, cp.Arguments)
		if err := checkResumable(cp, exec.chunks); err != nil {
			exec.endSpan()
			return nil, err
		}
	}

	logger.Infof("Resuming job '%s' (ID: %s) at chunk %d.", o.name, exec.id, cp.NextChunkIndex)
	o.notifyBeforeJob(exec.spanCtx, exec)
	if srcErr != nil {
		exec.halt(exec.spanCtx, model.NewFailedOperation(OperationGetAllItemIDs, cp.Arguments.AsMap(), srcErr))
		return exec, nil
	}
	exec.mustTransition(model.JobStateSourceResolved)
	exec.mustTransition(model.JobStatePartitioned)
	exec.next = cp.NextChunkIndex - 1
	if exec.next > 0 {
		exec.mustTransition(model.JobStateExecuting)
	}
	if exec.next >= len(exec.chunks) {
		exec.finish(exec.spanCtx)
	}
	return exec, nil
}

// checkResumable verifies that the re-resolved chunks agree with the checkpoint.
func checkResumable(cp *model.Checkpoint, chunks []model.Chunk) error {
	if cp.NextChunkIndex < 1 || cp.NextChunkIndex > len(chunks)+1 {
		return exception.NewStepError(moduleName, "checkpoint chunk index is out of range for the current item source", nil)
	}
	if cp.RunContext != nil && cp.RunContext.Initialized() && len(chunks) > 0 && cp.RunContext.Total() != chunks[0].TotalItems {
		return exception.NewStepError(moduleName, "item source changed since the checkpoint was written", nil)
	}
	return nil
}

func (o *JobOrchestrator) resolveSource(ctx context.Context, args model.JobArguments) ([]model.Identifier, error) {
	if o.source == nil {
		return nil, exception.NewSourceError(moduleName, "no item source configured", nil)
	}
	start := o.now()
	ids, err := o.fetchIDs(ctx, args)
	o.recorder.RecordDuration(ctx, "source.resolve", o.now().Sub(start), map[string]string{"job_name": o.name})
	if err != nil {
		o.tracer.RecordError(ctx, moduleName, err)
		logger.Errorf("Job '%s': item source failed: %v", o.name, err)
		return nil, exception.NewSourceError(moduleName, "failed to resolve item identifiers", err)
	}
	return ids, nil
}

// fetchIDs calls the item source and converts a panic into an error.
func (o *JobOrchestrator) fetchIDs(ctx context.Context, args model.JobArguments) (ids []model.Identifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item source panicked: %v", r)
		}
	}()
	return o.source.GetAllItemIDs(ctx, args)
}

func (o *JobOrchestrator) newExecution(ctx context.Context, id string, args model.JobArguments, startTime time.Time) *JobExecution {
	spanCtx, endSpan := o.tracer.StartJobSpan(ctx, id, o.name)
	return &JobExecution{
		orchestrator: o,
		id:           id,
		args:         args,
		state:        model.JobStateInit,
		rc:           model.NewRunContext(),
		ledger:       model.NewOutcomeLedger(),
		startTime:    startTime,
		spanCtx:      spanCtx,
		endSpan:      endSpan,
	}
}

func (o *JobOrchestrator) notifyBeforeJob(ctx context.Context, exec *JobExecution) {
	o.recorder.RecordJobStart(ctx, o.name)
	for _, l := range o.jobListeners {
		l.BeforeJob(ctx, exec.id, exec.args)
	}
}

func totalOf(chunks []model.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}
	return chunks[0].TotalItems
}
