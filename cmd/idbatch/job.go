package main

import (
	"context"
	"strconv"

	"go.uber.org/fx"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// Exit codes of the binary.
const (
	exitSuccess    = 0
	exitJobFailed  = 1
	exitBadRequest = 2
)

// JobRequest is the raw job input taken from the command line.
type JobRequest struct {
	IDs       string
	Limit     string
	ChunkSize string
	// ResumeJobID resumes a checkpointed job instead of starting a new one.
	ResumeJobID string
}

// Arguments parses the request. Limit and chunk size left empty on the command line fall
// back to the batch configuration.
func (r JobRequest) Arguments(cfg *config.BatchConfig) (model.JobArguments, error) {
	limit, chunkSize := r.Limit, r.ChunkSize
	if limit == "" && cfg.Limit > 0 {
		limit = strconv.Itoa(cfg.Limit)
	}
	if chunkSize == "" && cfg.ChunkSize > 0 {
		chunkSize = strconv.Itoa(cfg.ChunkSize)
	}
	return model.ParseJobArguments(r.IDs, limit, chunkSize)
}

// executeJob runs or resumes one job and returns the process exit code.
func executeJob(ctx context.Context, orchestrator *runner.JobOrchestrator, cfg *config.BatchConfig, req JobRequest) int {
	if req.ResumeJobID != "" {
		exec, err := orchestrator.Resume(ctx, req.ResumeJobID)
		if err != nil {
			logger.Errorf("Failed to resume job '%s': %v", req.ResumeJobID, err)
			return exitJobFailed
		}
		for exec.Step(ctx) {
		}
		return exitCodeOf(exec.Result())
	}

	args, err := req.Arguments(cfg)
	if err != nil {
		logger.Errorf("Invalid job input: %v", err)
		return exitBadRequest
	}
	return exitCodeOf(orchestrator.Run(ctx, args))
}

func exitCodeOf(result *model.JobResult) int {
	if result == nil || !result.Success {
		return exitJobFailed
	}
	return exitSuccess
}

// startJobExecution runs the job once the application has started and shuts the
// application down with the job's exit code.
func startJobExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	orchestrator *runner.JobOrchestrator,
	cfg *config.BatchConfig,
	req JobRequest,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := exitJobFailed
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in job execution: %v", r)
					}
					logger.Debugf("Requesting application shutdown after job completion (exit code %d).", code)
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()
				code = executeJob(appCtx, orchestrator, cfg, req)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Debugf("Application is shutting down.")
			return nil
		},
	})
}
