package source

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// NewItemSourceFromConfig builds the configured fallback source and puts the explicit-ids
// router in front of it.
func NewItemSourceFromConfig(lc fx.Lifecycle, cfg *config.SourceConfig) (port.ItemSource, error) {
	switch cfg.Type {
	case "", "static":
		ids := make([]model.Identifier, 0, len(cfg.IDs))
		for _, id := range cfg.IDs {
			ids = append(ids, model.Identifier(id))
		}
		logger.Debugf("Source: static source with %d identifiers.", len(ids))
		return ExplicitOr(NewStaticItemSource(ids...)), nil
	case "sql":
		src, err := OpenSQLItemSource(cfg.Driver, cfg.DSN, cfg.Query)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return src.Close() }})
		logger.Debugf("Source: sql source using driver '%s'.", cfg.Driver)
		return ExplicitOr(src), nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Type)
}

// Module provides the item source.
var Module = fx.Options(
	fx.Provide(NewItemSourceFromConfig),
)
