package metrics

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
	"github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

func newItemListener(cfg *config.BatchConfig, recorder metrics.MetricRecorder) port.ItemListener {
	return NewMetricsItemListener(cfg.JobName, recorder)
}

// Module decorates the MetricRecorder provided by infrastructure/metrics and contributes
// the item outcome listener.
var Module = fx.Options(
	fx.Decorate(NewAsyncMetricRecorderWrapper),
	fx.Provide(fx.Annotate(newItemListener, fx.ResultTags(runner.ItemListenerGroup))),
)
