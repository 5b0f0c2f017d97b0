// Package badger provides a CheckpointRepository on an embedded badger key-value store,
// for hosts that resume jobs across process restarts without a SQL database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/serialization"
)

const moduleName = "BadgerCheckpointRepository"

// checkpointRecord is the stored form of a checkpoint, keyed by JobID.
type checkpointRecord struct {
	JobID     string
	JobName   string `badgerhold:"index"`
	Payload   []byte
	UpdatedAt time.Time
}

// BadgerCheckpointRepository implements repository.CheckpointRepository with badgerhold.
type BadgerCheckpointRepository struct {
	store *badgerhold.Store
}

// NewBadgerCheckpointRepository opens (or creates) the store under path.
func NewBadgerCheckpointRepository(path string) (*BadgerCheckpointRepository, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to create directory '%s'", path), err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to open badger store at '%s'", path), err)
	}
	logger.Debugf("Badger checkpoint store opened at %s.", path)
	return &BadgerCheckpointRepository{store: store}, nil
}

// SaveCheckpoint upserts the checkpoint of cp.JobID.
func (r *BadgerCheckpointRepository) SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error {
	payload, err := serialization.MarshalCheckpoint(cp)
	if err != nil {
		return err
	}
	record := checkpointRecord{JobID: cp.JobID, JobName: cp.JobName, Payload: payload, UpdatedAt: cp.UpdatedAt}
	if err := r.store.Upsert(cp.JobID, &record); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to save checkpoint of job %s", cp.JobID), err)
	}
	return nil
}

// FindCheckpoint loads the checkpoint of jobID.
func (r *BadgerCheckpointRepository) FindCheckpoint(ctx context.Context, jobID string) (*model.Checkpoint, error) {
	var record checkpointRecord
	if err := r.store.Get(jobID, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, repository.ErrCheckpointNotFound
		}
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to load checkpoint of job %s", jobID), err)
	}
	return serialization.UnmarshalCheckpoint(record.Payload)
}

// DeleteCheckpoint removes the checkpoint of jobID.
func (r *BadgerCheckpointRepository) DeleteCheckpoint(ctx context.Context, jobID string) error {
	if err := r.store.Delete(jobID, &checkpointRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to delete checkpoint of job %s", jobID), err)
	}
	return nil
}

// JobIDs returns the ids of the stored checkpoints of jobName.
func (r *BadgerCheckpointRepository) JobIDs(jobName string) ([]string, error) {
	var records []checkpointRecord
	if err := r.store.Find(&records, badgerhold.Where("JobName").Eq(jobName).Index("JobName")); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to list checkpoints", err)
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.JobID)
	}
	return ids, nil
}

// Close closes the underlying store.
func (r *BadgerCheckpointRepository) Close() error {
	return r.store.Close()
}

var _ repository.CheckpointRepository = (*BadgerCheckpointRepository)(nil)
