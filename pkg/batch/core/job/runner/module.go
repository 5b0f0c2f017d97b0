package runner

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

// Fx value groups collecting listeners from the listener modules.
const (
	JobListenerGroup   = `group:"job_listeners"`
	ChunkListenerGroup = `group:"chunk_listeners"`
	ItemListenerGroup  = `group:"item_listeners"`
)

// JobOrchestratorParams defines dependencies for JobOrchestrator.
type JobOrchestratorParams struct {
	fx.In
	Config         *config.BatchConfig
	Source         port.ItemSource
	Processor      port.ItemProcessor
	Repository     repository.CheckpointRepository `optional:"true"`
	Reporter       port.FinishReporter             `optional:"true"`
	JobListeners   []port.JobListener              `group:"job_listeners"`
	ChunkListeners []port.ChunkListener            `group:"chunk_listeners"`
	ItemListeners  []port.ItemListener             `group:"item_listeners"`
	Recorder       metrics.MetricRecorder
	Tracer         metrics.Tracer
}

// NewJobOrchestratorFromParams builds the JobOrchestrator from the Fx graph.
// Checkpointing is enabled only when the batch configuration asks for it.
func NewJobOrchestratorFromParams(p JobOrchestratorParams) *JobOrchestrator {
	opts := []Option{
		WithJobName(p.Config.JobName),
		WithFinishReporter(p.Reporter),
		WithJobListeners(p.JobListeners...),
		WithChunkListeners(p.ChunkListeners...),
		WithItemListeners(p.ItemListeners...),
		WithMetricRecorder(p.Recorder),
		WithTracer(p.Tracer),
	}
	if p.Config.CheckpointEnabled && p.Repository != nil {
		opts = append(opts, WithCheckpointRepository(p.Repository))
	}
	return NewJobOrchestrator(p.Source, p.Processor, opts...)
}

// Module provides the JobOrchestrator.
var Module = fx.Options(
	fx.Provide(NewJobOrchestratorFromParams),
)
