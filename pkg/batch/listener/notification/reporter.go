// Package notification turns a finished job into the operator-facing report:
// one status line on a Messenger plus log entries carrying the full ledger.
package notification

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/core/ports"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// FinishReporter writes the terminal report of a job.
type FinishReporter struct {
	messenger ports.Messenger
}

// NewFinishReporter creates a FinishReporter publishing to messenger.
// A nil messenger sends status lines to the logger.
func NewFinishReporter(messenger ports.Messenger) *FinishReporter {
	if messenger == nil {
		messenger = NewLogMessenger()
	}
	return &FinishReporter{messenger: messenger}
}

// Report implements port.FinishReporter. It never panics: a failing messenger is logged and skipped.
func (r *FinishReporter) Report(ctx context.Context, result *model.JobResult) {
	if result == nil {
		logger.Warnf("Notification: no job result to report.")
		return
	}
	ledger := result.Ledger
	if ledger == nil {
		ledger = model.NewOutcomeLedger()
	}

	if result.Success {
		msg := SuccessMessage(ledger, result.Elapsed)
		r.publish(ctx, false, msg)
		logger.Infof("%s", msg)
		logger.InfoWith("Batch complete result", ledger.Fields())
		return
	}

	msg := FailureMessage(result.FailedOperation)
	r.publish(ctx, true, msg)
	logger.Errorf("%s", msg)
	logger.ErrorWith("Failed updating items, Batch complete result", ledger.Fields())
}

func (r *FinishReporter) publish(ctx context.Context, isError bool, msg string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("Notification: messenger panicked while publishing %q: %v", msg, p)
		}
	}()
	if isError {
		r.messenger.AddError(ctx, msg)
		return
	}
	r.messenger.AddStatus(ctx, msg)
}

// SuccessMessage formats the status line of a successful job.
func SuccessMessage(ledger *model.OutcomeLedger, elapsed time.Duration) string {
	c := ledger.Counts()
	return fmt.Sprintf("%d items were processed (%s). (Success: %d, Ignored: %d and Failed: %d)",
		c.Total, FormatElapsed(elapsed), c.Succeeded, c.Ignored, c.Failed)
}

// FailureMessage formats the status line of a failed job.
func FailureMessage(failed *model.FailedOperation) string {
	if failed == nil {
		return "An error occurred while processing an unknown operation with arguments: {}"
	}
	return fmt.Sprintf("An error occurred while processing %s with arguments: %s", failed.Operation, failed.ArgumentsString())
}

// FormatElapsed renders d rounded to the millisecond, or to the second above a minute.
func FormatElapsed(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}

var _ port.FinishReporter = (*FinishReporter)(nil)
