// Package sql provides a gorm-backed CheckpointRepository that works with every dialect
// registered in the database adapter (SQLite, MySQL, PostgreSQL).
package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/database"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/serialization"
)

const moduleName = "SQLCheckpointRepository"

// SQLCheckpointRepository implements repository.CheckpointRepository on a gorm connection.
type SQLCheckpointRepository struct {
	db *gorm.DB
}

// NewSQLCheckpointRepository creates the repository on db and migrates the checkpoint table.
func NewSQLCheckpointRepository(db *gorm.DB) (*SQLCheckpointRepository, error) {
	if err := db.AutoMigrate(&CheckpointEntity{}); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to migrate checkpoint table", err)
	}
	return &SQLCheckpointRepository{db: db}, nil
}

// NewSQLCheckpointRepositoryFromResolver resolves the connection named dbName and creates
// the repository on it.
func NewSQLCheckpointRepositoryFromResolver(ctx context.Context, resolver database.DBConnectionResolver, dbName string) (*SQLCheckpointRepository, error) {
	db, err := resolver.ResolveDB(ctx, dbName)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to resolve DB connection '%s'", dbName), err)
	}
	logger.Debugf("Checkpoint repository uses DB connection '%s'.", dbName)
	return NewSQLCheckpointRepository(db)
}

// SaveCheckpoint upserts the checkpoint of cp.JobID.
func (r *SQLCheckpointRepository) SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error {
	payload, err := serialization.MarshalCheckpoint(cp)
	if err != nil {
		return err
	}
	entity := &CheckpointEntity{
		JobID:          cp.JobID,
		JobName:        cp.JobName,
		State:          cp.State.String(),
		NextChunkIndex: cp.NextChunkIndex,
		Payload:        payload,
		UpdatedAt:      cp.UpdatedAt,
	}
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{SkipDefaultTransaction: true}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"job_name", "state", "next_chunk_index", "payload", "updated_at"}),
		}).
		Create(entity)
	if result.Error != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to save checkpoint of job %s", cp.JobID), result.Error)
	}
	return nil
}

// FindCheckpoint loads the checkpoint of jobID.
func (r *SQLCheckpointRepository) FindCheckpoint(ctx context.Context, jobID string) (*model.Checkpoint, error) {
	var entity CheckpointEntity
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to load checkpoint of job %s", jobID), err)
	}
	return serialization.UnmarshalCheckpoint(entity.Payload)
}

// DeleteCheckpoint removes the checkpoint of jobID.
func (r *SQLCheckpointRepository) DeleteCheckpoint(ctx context.Context, jobID string) error {
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&CheckpointEntity{}).Error; err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to delete checkpoint of job %s", jobID), err)
	}
	return nil
}

// Close is a no-op: the connection belongs to the database adapter, which closes it on shutdown.
func (r *SQLCheckpointRepository) Close() error {
	return nil
}

var _ repository.CheckpointRepository = (*SQLCheckpointRepository)(nil)
