package logging

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// --- Job Listener ---

type LoggingJobListener struct{}

func NewLoggingJobListener() *LoggingJobListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobID string, args model.JobArguments) {
	logger.Infof("JobListener: BeforeJob - ID: %s, Arguments: %s", jobID, args.String())
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, result *model.JobResult) {
	c := result.Ledger.Counts()
	if result.Success {
		logger.Infof("JobListener: AfterJob - ID: %s, Success: true, Elapsed: %s, Counts: %+v", result.JobID, result.Elapsed, c)
		return
	}
	op := ""
	if result.FailedOperation != nil {
		op = result.FailedOperation.Operation
	}
	logger.Warnf("JobListener: AfterJob - ID: %s, Success: false, FailedOperation: %s, Counts: %+v", result.JobID, op, c)
}

var _ port.JobListener = (*LoggingJobListener)(nil)

// --- Chunk Listener ---

// LoggingChunkListener reports job progress after every chunk.
type LoggingChunkListener struct{}

func NewLoggingChunkListener() *LoggingChunkListener {
	return &LoggingChunkListener{}
}

func (l *LoggingChunkListener) BeforeChunk(ctx context.Context, chunk model.Chunk, rc *model.RunContext) {
	logger.Debugf("ChunkListener: BeforeChunk - Chunk: %d, Items: %d", chunk.Index, chunk.Len())
}

func (l *LoggingChunkListener) AfterChunk(ctx context.Context, chunk model.Chunk, rc *model.RunContext, elapsed time.Duration, err error) {
	if err != nil {
		logger.Errorf("ChunkListener: AfterChunk - Chunk: %d failed after %s: %v", chunk.Index, elapsed, err)
		return
	}
	logger.Infof("Batch in progress: %s", ProgressLine(rc))
}

// ProgressLine renders rc as "progress/total (pct%) last=<id>".
func ProgressLine(rc *model.RunContext) string {
	return fmt.Sprintf("%d/%d (%.0f%%) last=%s", rc.Progress(), rc.Total(), rc.Percent(), rc.LastProcessed())
}

var _ port.ChunkListener = (*LoggingChunkListener)(nil)

// --- Item Listener ---

type LoggingItemListener struct{}

func NewLoggingItemListener() *LoggingItemListener {
	return &LoggingItemListener{}
}

func (l *LoggingItemListener) AfterItem(ctx context.Context, id model.Identifier, outcome model.Outcome, err error) {
	if outcome == model.OutcomeFailed {
		logger.Warnf("ItemListener: item %s failed: %v", id, err)
		return
	}
	logger.Tracef("ItemListener: item %s %s", id, outcome)
}

var _ port.ItemListener = (*LoggingItemListener)(nil)
