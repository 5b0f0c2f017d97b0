package main

import (
	"io"

	"go.uber.org/fx"

	gormadapter "github.com/tigerroll/idbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/idbatch/pkg/batch/component/item"
	"github.com/tigerroll/idbatch/pkg/batch/component/source"
	"github.com/tigerroll/idbatch/pkg/batch/component/source/drivers"
	"github.com/tigerroll/idbatch/pkg/batch/component/step/writer"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	"github.com/tigerroll/idbatch/pkg/batch/core/job/runner"
	"github.com/tigerroll/idbatch/pkg/batch/core/ports"
	metricsinfra "github.com/tigerroll/idbatch/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/idbatch/pkg/batch/infrastructure/repository"
	batchlistener "github.com/tigerroll/idbatch/pkg/batch/listener"
	"github.com/tigerroll/idbatch/pkg/batch/listener/notification"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// AppSettings are the process-level inputs of the application graph.
type AppSettings struct {
	EnvFilePath    string
	ConfigFilePath string
	EmbeddedConfig []byte
	// Output receives the end-of-job notification.
	Output io.Writer
}

// GetApplicationOptions builds the uber-fx options of the batch application.
// The caller adds the invoke that runs the job.
func GetApplicationOptions(settings AppSettings) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		config.EmbeddedConfig(settings.EmbeddedConfig),
		fx.Annotate(settings.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(settings.ConfigFilePath, fx.ResultTags(`name:"configFilePath"`)),
		fx.Annotate(notification.NewWriterMessenger(settings.Output), fx.As(new(ports.Messenger))),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, gormadapter.Module, sqlite.Module, mysql.Module, postgres.Module)
	options = append(options, repository.Module)
	options = append(options, metricsinfra.Module)
	options = append(options, batchlistener.Module)
	options = append(options, drivers.Module)
	options = append(options, source.Module)
	options = append(options, item.Module)
	options = append(options, writer.Module)
	options = append(options, runner.Module)

	return options
}
