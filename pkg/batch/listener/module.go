package listener

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
	"github.com/tigerroll/idbatch/pkg/batch/listener/logging"
	"github.com/tigerroll/idbatch/pkg/batch/listener/metrics"
	"github.com/tigerroll/idbatch/pkg/batch/listener/notification"
	"github.com/tigerroll/idbatch/pkg/batch/listener/tracing"
)

// Module aggregates all listener modules of the batch engine, plus the completion signaler.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	tracing.Module,
	notification.Module,
	fx.Provide(NewJobCompletionSignaler),
	fx.Provide(fx.Annotate(
		func(s *JobCompletionSignaler) port.JobListener { return s },
		fx.ResultTags(runner.JobListenerGroup),
	)),
)
