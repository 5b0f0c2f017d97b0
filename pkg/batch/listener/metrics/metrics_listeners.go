package metrics

import (
	"context"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/core/metrics"
)

// MetricsItemListener counts item outcomes. Job and chunk metrics are recorded by the
// orchestrator itself.
type MetricsItemListener struct {
	jobName  string
	recorder metrics.MetricRecorder
}

func NewMetricsItemListener(jobName string, recorder metrics.MetricRecorder) *MetricsItemListener {
	return &MetricsItemListener{jobName: jobName, recorder: recorder}
}

func (l *MetricsItemListener) AfterItem(ctx context.Context, id model.Identifier, outcome model.Outcome, err error) {
	l.recorder.RecordItemOutcome(ctx, l.jobName, outcome)
}

var _ port.ItemListener = (*MetricsItemListener)(nil)
