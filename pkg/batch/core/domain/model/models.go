// Package model holds the domain types of the batch engine: job arguments, chunks,
// the run context, the outcome ledger, job state and results.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

// JobState represents the position of a job in its lifecycle.
type JobState string

const (
	JobStateInit           JobState = "INIT"
	JobStateSourceResolved JobState = "SOURCE_RESOLVED"
	JobStatePartitioned    JobState = "PARTITIONED"
	JobStateExecuting      JobState = "EXECUTING"
	JobStateFinished       JobState = "FINISHED"
)

// String returns the string representation of the JobState.
func (s JobState) String() string {
	return string(s)
}

// IsFinished checks if the JobState is terminal.
func (s JobState) IsFinished() bool {
	return s == JobStateFinished
}

// isValidJobTransition checks if a job may move from current to next.
// Every non-terminal state may jump to FINISHED, which covers source errors,
// zero-chunk jobs and halted executions.
func isValidJobTransition(current, next JobState) bool {
	if next == JobStateFinished {
		return current != JobStateFinished
	}
	switch current {
	case JobStateInit:
		return next == JobStateSourceResolved
	case JobStateSourceResolved:
		return next == JobStatePartitioned
	case JobStatePartitioned:
		return next == JobStateExecuting
	default:
		return false
	}
}

// TransitionTo returns next if the move from s is legal.
func (s JobState) TransitionTo(next JobState) (JobState, error) {
	if !isValidJobTransition(s, next) {
		return s, exception.NewBatchError("model", fmt.Sprintf("invalid state transition: %s -> %s", s, next), exception.ErrInvalidTransition)
	}
	return next, nil
}

// NewID generates a new job identifier.
func NewID() string {
	return uuid.New().String()
}

// FailedOperation identifies the operation that stopped a job: the item source
// or the halting chunk, with the arguments it was called with.
type FailedOperation struct {
	Operation string                 `json:"operation"`
	Arguments map[string]interface{} `json:"arguments"`
	Message   string                 `json:"error,omitempty"`
	Err       error                  `json:"-"`
}

// NewFailedOperation builds a FailedOperation from an operation name, its arguments and the cause.
func NewFailedOperation(operation string, arguments map[string]interface{}, err error) *FailedOperation {
	f := &FailedOperation{Operation: operation, Arguments: arguments, Err: err}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// ArgumentsString renders the arguments as JSON.
func (f *FailedOperation) ArgumentsString() string {
	data, err := json.Marshal(f.Arguments)
	if err != nil {
		return fmt.Sprintf("%v", f.Arguments)
	}
	return string(data)
}

// JobResult is the terminal value of a job. It is created once, when the job finishes.
type JobResult struct {
	JobID     string         `json:"job_id"`
	JobName   string         `json:"job_name"`
	Success   bool           `json:"success"`
	Ledger    *OutcomeLedger `json:"ledger"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Elapsed   time.Duration  `json:"elapsed"`
	// FailedOperation is set only when Success is false.
	FailedOperation *FailedOperation `json:"failed_operation,omitempty"`
}

// Checkpoint is the resumption state of a job persisted between chunk steps.
type Checkpoint struct {
	JobID     string       `json:"job_id"`
	JobName   string       `json:"job_name"`
	Arguments JobArguments `json:"arguments"`
	State     JobState     `json:"state"`
	// NextChunkIndex is the 1-based index of the next chunk to run.
	NextChunkIndex int            `json:"next_chunk_index"`
	RunContext     *RunContext    `json:"run_context"`
	Ledger         *OutcomeLedger `json:"ledger"`
	StartTime      time.Time      `json:"start_time"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	out := *c
	out.Arguments.IDs = append([]Identifier(nil), c.Arguments.IDs...)
	if c.Arguments.IDs != nil && out.Arguments.IDs == nil {
		out.Arguments.IDs = []Identifier{}
	}
	if c.RunContext != nil {
		out.RunContext = c.RunContext.Clone()
	}
	if c.Ledger != nil {
		out.Ledger = c.Ledger.Clone()
	}
	return &out
}
