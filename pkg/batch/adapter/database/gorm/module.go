package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/database"
)

// closeOnStop closes every pooled connection when the application stops.
func closeOnStop(lc fx.Lifecycle, r *GormDBConnectionResolver) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.CloseAll()
		},
	})
}

// Module exports the connection resolver of the gorm adapter. The concrete DB providers
// live in the sqlite, mysql and postgres sub-packages.
var Module = fx.Options(
	fx.Provide(NewGormDBConnectionResolver),
	fx.Provide(func(r *GormDBConnectionResolver) database.DBConnectionResolver { return r }),
	fx.Invoke(closeOnStop),
)
