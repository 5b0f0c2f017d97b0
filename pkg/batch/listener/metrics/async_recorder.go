package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/core/metrics"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// DefaultAsyncBufferSize is the queue length used when none is configured.
const DefaultAsyncBufferSize = 100

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type     string
	Ctx      context.Context
	JobName  string
	Result   *model.JobResult
	Chunk    model.Chunk
	Outcome  model.Outcome
	Err      error
	Name     string
	Duration time.Duration
	Tags     map[string]string
}

// Metric event type constants
const (
	MetricEventTypeJobStart       = "job_start"
	MetricEventTypeJobEnd         = "job_end"
	MetricEventTypeChunk          = "chunk"
	MetricEventTypeItemOutcome    = "item_outcome"
	MetricEventTypeRecordDuration = "record_duration"
)

// AsyncMetricRecorder asynchronously records metrics by pushing events to a channel
// and processing them in a separate goroutine.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder
}

// NewAsyncMetricRecorder creates a new asynchronous metric recorder.
// bufferSize: The buffer size for the event queue. If 0 or less, DefaultAsyncBufferSize is used.
// syncRec: The synchronous recorder that performs the actual metric recording.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = DefaultAsyncBufferSize
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run()
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			// Drain what was queued before the stop signal.
			remaining := len(r.eventQueue)
			for i := 0; i < remaining; i++ {
				r.processEvent(<-r.eventQueue)
			}
			logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remaining)
			return
		}
	}
}

func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	ctx := event.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	switch event.Type {
	case MetricEventTypeJobStart:
		r.syncRecorder.RecordJobStart(ctx, event.JobName)
	case MetricEventTypeJobEnd:
		r.syncRecorder.RecordJobEnd(ctx, event.Result)
	case MetricEventTypeChunk:
		r.syncRecorder.RecordChunk(ctx, event.JobName, event.Chunk, event.Duration, event.Err)
	case MetricEventTypeItemOutcome:
		r.syncRecorder.RecordItemOutcome(ctx, event.JobName, event.Outcome)
	case MetricEventTypeRecordDuration:
		r.syncRecorder.RecordDuration(ctx, event.Name, event.Duration, event.Tags)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// Close stops the worker after it has recorded every queued event. It is safe to call twice.
func (r *AsyncMetricRecorder) Close() {
	r.stopOnce.Do(func() {
		logger.Debugf("AsyncMetricRecorder: Sending shutdown signal...")
		close(r.stopCh)
	})
	r.wg.Wait()
}

// sendEvent queues an event, dropping it with a warning when the queue is full.
// The event keeps the values of ctx (the active span) but not its cancellation.
func (r *AsyncMetricRecorder) sendEvent(ctx context.Context, event MetricEvent) {
	if ctx != nil {
		event.Ctx = context.WithoutCancel(ctx)
	}
	select {
	case r.eventQueue <- event:
	default:
		logger.Warnf("AsyncMetricRecorder: Event queue is full (type: %s). Event discarded.", event.Type)
	}
}

func (r *AsyncMetricRecorder) RecordJobStart(ctx context.Context, jobName string) {
	r.sendEvent(ctx, MetricEvent{Type: MetricEventTypeJobStart, JobName: jobName})
}

func (r *AsyncMetricRecorder) RecordJobEnd(ctx context.Context, result *model.JobResult) {
	r.sendEvent(ctx, MetricEvent{Type: MetricEventTypeJobEnd, Result: result})
}

func (r *AsyncMetricRecorder) RecordChunk(ctx context.Context, jobName string, chunk model.Chunk, duration time.Duration, err error) {
	r.sendEvent(ctx, MetricEvent{Type: MetricEventTypeChunk, JobName: jobName, Chunk: chunk, Duration: duration, Err: err})
}

func (r *AsyncMetricRecorder) RecordItemOutcome(ctx context.Context, jobName string, outcome model.Outcome) {
	r.sendEvent(ctx, MetricEvent{Type: MetricEventTypeItemOutcome, JobName: jobName, Outcome: outcome})
}

func (r *AsyncMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.sendEvent(ctx, MetricEvent{Type: MetricEventTypeRecordDuration, Name: name, Duration: duration, Tags: tags})
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)

// NewAsyncMetricRecorderWrapper is used with fx.Decorate. When the metrics configuration asks
// for it, the provided recorder is wrapped in an AsyncMetricRecorder that is drained on shutdown.
func NewAsyncMetricRecorderWrapper(lc fx.Lifecycle, cfg *config.MetricsConfig, syncRecorder metrics.MetricRecorder) metrics.MetricRecorder {
	if !cfg.Async || cfg.Backend == "none" {
		return syncRecorder
	}
	asyncRecorder := NewAsyncMetricRecorder(cfg.AsyncBufferSize, syncRecorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			asyncRecorder.Close()
			return nil
		},
	})
	logger.Debugf("MetricRecorder decorated with asynchronous wrapper.")
	return asyncRecorder
}
