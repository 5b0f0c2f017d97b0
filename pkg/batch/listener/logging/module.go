package logging

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
)

// Module contributes the logging listeners to the orchestrator's listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingJobListener,
		fx.As(new(port.JobListener)),
		fx.ResultTags(runner.JobListenerGroup),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingChunkListener,
		fx.As(new(port.ChunkListener)),
		fx.ResultTags(runner.ChunkListenerGroup),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingItemListener,
		fx.As(new(port.ItemListener)),
		fx.ResultTags(runner.ItemListenerGroup),
	)),
)
