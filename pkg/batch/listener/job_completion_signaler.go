package listener

import (
	"context"
	"sync"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// JobCompletionSignaler is a JobListener that publishes the first finished job's result
// and closes Done, so a host waiting on the job can shut down.
type JobCompletionSignaler struct {
	once   sync.Once
	done   chan struct{}
	result *model.JobResult
}

// NewJobCompletionSignaler creates a new instance of JobCompletionSignaler.
func NewJobCompletionSignaler() *JobCompletionSignaler {
	return &JobCompletionSignaler{done: make(chan struct{})}
}

// Done is closed once a job has finished.
func (s *JobCompletionSignaler) Done() <-chan struct{} { return s.done }

// Result returns the result of the finished job. It is nil until Done is closed.
func (s *JobCompletionSignaler) Result() *model.JobResult {
	select {
	case <-s.done:
		return s.result
	default:
		return nil
	}
}

// BeforeJob does nothing.
func (s *JobCompletionSignaler) BeforeJob(ctx context.Context, jobID string, args model.JobArguments) {
}

// AfterJob stores result and closes Done.
func (s *JobCompletionSignaler) AfterJob(ctx context.Context, result *model.JobResult) {
	s.once.Do(func() {
		s.result = result
		close(s.done)
		logger.Debugf("JobCompletionSignaler: job %s finished, signalling completion.", result.JobID)
	})
}

var _ port.JobListener = (*JobCompletionSignaler)(nil)
