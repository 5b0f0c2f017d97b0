// Package repository declares how job checkpoints are persisted between chunk steps.
package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// ErrCheckpointNotFound is returned when no checkpoint exists for a job.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointRepository stores the resumption state of jobs keyed by job id.
type CheckpointRepository interface {
	// SaveCheckpoint persists or replaces the checkpoint of cp.JobID.
	SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error
	// FindCheckpoint returns the checkpoint of jobID, or ErrCheckpointNotFound.
	FindCheckpoint(ctx context.Context, jobID string) (*model.Checkpoint, error)
	// DeleteCheckpoint removes the checkpoint of jobID. Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, jobID string) error
	// Close releases resources used by the repository.
	Close() error
}
