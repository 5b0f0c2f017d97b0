package notification

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/idbatch/pkg/batch/core/ports"
)

// FinishReporterParams defines the dependencies of the FinishReporter.
type FinishReporterParams struct {
	fx.In
	// Messenger is supplied by the host; the logger is used when absent.
	Messenger ports.Messenger `optional:"true"`
}

// NewFinishReporterFromParams builds the FinishReporter from the Fx graph.
func NewFinishReporterFromParams(p FinishReporterParams) port.FinishReporter {
	return NewFinishReporter(p.Messenger)
}

// Module provides the FinishReporter.
var Module = fx.Options(
	fx.Provide(NewFinishReporterFromParams),
)
