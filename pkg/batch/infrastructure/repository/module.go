// Package repository selects and provides the checkpoint repository configured for the host.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/database"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/idbatch/pkg/batch/infrastructure/repository/badger"
	"github.com/tigerroll/idbatch/pkg/batch/infrastructure/repository/inmemory"
	sqlrepo "github.com/tigerroll/idbatch/pkg/batch/infrastructure/repository/sql"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// CheckpointRepositoryParams defines dependencies for NewCheckpointRepository.
type CheckpointRepositoryParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.RepositoryConfig
	Resolver  database.DBConnectionResolver `optional:"true"`
}

// NewCheckpointRepository builds the repository named by the configuration's type and
// closes it when the application stops.
func NewCheckpointRepository(p CheckpointRepositoryParams) (repository.CheckpointRepository, error) {
	var (
		repo repository.CheckpointRepository
		err  error
	)
	switch p.Config.Type {
	case "", "inmemory":
		repo = inmemory.NewInMemoryCheckpointRepository()
	case "sql":
		if p.Resolver == nil {
			return nil, exception.NewBatchError("repository", "sql checkpoint repository requires the database adapter", nil)
		}
		repo, err = sqlrepo.NewSQLCheckpointRepositoryFromResolver(context.Background(), p.Resolver, p.Config.DBRef)
	case "badger":
		repo, err = badger.NewBadgerCheckpointRepository(p.Config.Badger.Path)
	default:
		return nil, exception.NewBatchError("repository", fmt.Sprintf("unknown checkpoint repository type '%s'", p.Config.Type), nil)
	}
	if err != nil {
		return nil, err
	}
	logger.Infof("Checkpoint repository: %s", p.Config.Type)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return repo.Close()
		},
	})
	return repo, nil
}

// Module provides the configured repository.CheckpointRepository.
var Module = fx.Options(
	fx.Provide(NewCheckpointRepository),
)
