package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	sqlrepo "github.com/tigerroll/idbatch/pkg/batch/infrastructure/repository/sql"
)

func newRepository(t *testing.T) *sqlrepo.SQLCheckpointRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := sqlrepo.NewSQLCheckpointRepository(db)
	require.NoError(t, err)
	return repo
}

func TestSQLCheckpointRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	_, err := repo.FindCheckpoint(ctx, "job-1")
	assert.ErrorIs(t, err, repository.ErrCheckpointNotFound)

	ledger := model.NewOutcomeLedger()
	require.NoError(t, ledger.Record("1", model.OutcomeSucceeded))
	cp := &model.Checkpoint{
		JobID:          "job-1",
		JobName:        "idbatch",
		State:          model.JobStateExecuting,
		NextChunkIndex: 2,
		RunContext:     model.NewRunContext(),
		Ledger:         ledger,
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))

	// A second save replaces the row.
	require.NoError(t, ledger.Record("2", model.OutcomeFailed))
	cp.NextChunkIndex = 3
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))

	got, err := repo.FindCheckpoint(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.NextChunkIndex)
	assert.Equal(t, model.Identifiers("2"), got.Ledger.Failed)
	assert.Equal(t, model.JobStateExecuting, got.State)

	require.NoError(t, repo.DeleteCheckpoint(ctx, "job-1"))
	require.NoError(t, repo.DeleteCheckpoint(ctx, "job-1"))
	_, err = repo.FindCheckpoint(ctx, "job-1")
	assert.ErrorIs(t, err, repository.ErrCheckpointNotFound)
	assert.NoError(t, repo.Close())
}
