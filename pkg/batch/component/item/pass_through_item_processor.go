// Package item provides the built-in item processors.
package item

import (
	"context"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// PassThroughProcessor reports every item as updated without doing any work.
// It is the default processor, useful for dry runs and for exercising a source.
type PassThroughProcessor struct{}

// NewPassThroughProcessor creates a new instance of PassThroughProcessor.
func NewPassThroughProcessor() *PassThroughProcessor {
	return &PassThroughProcessor{}
}

func (p *PassThroughProcessor) ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
	logger.Tracef("PassThroughProcessor: Processing item: %s", id)
	return model.ResultUpdated, nil
}

// IgnoreAllProcessor reports every item as ignored.
type IgnoreAllProcessor struct{}

// NewIgnoreAllProcessor creates a new instance of IgnoreAllProcessor.
func NewIgnoreAllProcessor() *IgnoreAllProcessor {
	return &IgnoreAllProcessor{}
}

func (p *IgnoreAllProcessor) ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
	return model.ResultIgnored, nil
}

var (
	_ port.ItemProcessor = (*PassThroughProcessor)(nil)
	_ port.ItemProcessor = (*IgnoreAllProcessor)(nil)
)
