package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	listenermetrics "github.com/tigerroll/idbatch/pkg/batch/listener/metrics"
)

type MockMetricRecorder struct {
	mock.Mock
}

func (m *MockMetricRecorder) RecordJobStart(ctx context.Context, jobName string) {
	m.Called(ctx, jobName)
}

func (m *MockMetricRecorder) RecordJobEnd(ctx context.Context, result *model.JobResult) {
	m.Called(ctx, result)
}

func (m *MockMetricRecorder) RecordChunk(ctx context.Context, jobName string, chunk model.Chunk, duration time.Duration, err error) {
	m.Called(ctx, jobName, chunk, duration, err)
}

func (m *MockMetricRecorder) RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome) {
	m.Called(ctx, jobName, outcome)
}

func (m *MockMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	m.Called(ctx, name, duration, tags)
}

func TestItemListenerRecordsOutcome(t *testing.T) {
	rec := new(MockMetricRecorder)
	rec.On("RecordItemOutcome", mock.Anything, "nightly", model.OutcomeFailed).Once()

	listenermetrics.NewMetricsItemListener("nightly", rec).
		AfterItem(context.Background(), "9", model.OutcomeFailed, errors.New("locked"))

	rec.AssertExpectations(t)
}

type ctxKey struct{}

func TestAsyncRecorderDrainsOnClose(t *testing.T) {
	rec := new(MockMetricRecorder)
	result := &model.JobResult{JobName: "nightly", Success: true}
	chunk := model.Chunk{IDs: model.Identifiers("1"), Index: 1, TotalItems: 1}
	stepErr := errors.New("halted")

	rec.On("RecordJobStart", mock.Anything, "nightly").Once()
	rec.On("RecordChunk", mock.Anything, "nightly", chunk, time.Second, stepErr).Once()
	rec.On("RecordItemOutcome", mock.Anything, "nightly", model.OutcomeSucceeded).Times(3)
	rec.On("RecordDuration", mock.Anything, "source.resolve", 2*time.Second, map[string]string{"job_name": "nightly"}).Once()
	rec.On("RecordJobEnd", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Value(ctxKey{}) == "span" && ctx.Err() == nil
	}), result).Once()

	r := listenermetrics.NewAsyncMetricRecorder(16, rec)
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "span"))
	r.RecordJobStart(ctx, "nightly")
	r.RecordDuration(ctx, "source.resolve", 2*time.Second, map[string]string{"job_name": "nightly"})
	r.RecordChunk(ctx, "nightly", chunk, time.Second, stepErr)
	for i := 0; i < 3; i++ {
		r.RecordItemOutcome(ctx, "nightly", model.OutcomeSucceeded)
	}
	r.RecordJobEnd(ctx, result)
	cancel()

	r.Close()
	r.Close()
	rec.AssertExpectations(t)
}

type blockingRecorder struct {
	MockMetricRecorder
	release chan struct{}
	seen    int
}

func (b *blockingRecorder) RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome) {
	<-b.release
	b.seen++
}

func TestAsyncRecorderDropsWhenFull(t *testing.T) {
	rec := &blockingRecorder{release: make(chan struct{})}
	r := listenermetrics.NewAsyncMetricRecorder(1, rec)

	// The worker holds at most one event and the queue one more; the rest are dropped.
	for i := 0; i < 10; i++ {
		r.RecordItemOutcome(context.Background(), "job", model.OutcomeIgnored)
	}
	close(rec.release)
	r.Close()

	assert.LessOrEqual(t, rec.seen, 2)
	assert.GreaterOrEqual(t, rec.seen, 1)
}
