package tracing

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
)

// Module contributes the tracing listeners. The Tracer itself comes from
// pkg/batch/infrastructure/metrics.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewTracingJobListener,
		fx.As(new(port.JobListener)),
		fx.ResultTags(runner.JobListenerGroup),
	)),
	fx.Provide(fx.Annotate(
		NewTracingItemListener,
		fx.As(new(port.ItemListener)),
		fx.ResultTags(runner.ItemListenerGroup),
	)),
)
