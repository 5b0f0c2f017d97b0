// Package source provides item sources: a static identifier list, a SQL query, and the
// explicit-ids router placed in front of either.
package source

import (
	"context"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const moduleName = "source"

// explicitOr serves the caller's identifiers when the job input carries them.
type explicitOr struct {
	fallback port.ItemSource
}

// ExplicitOr returns a source that yields args.IDs when the arguments carry an explicit
// identifier list and asks fallback for the full universe otherwise.
func ExplicitOr(fallback port.ItemSource) port.ItemSource {
	return &explicitOr{fallback: fallback}
}

func (s *explicitOr) GetAllItemIDs(ctx context.Context, args model.JobArguments) ([]model.Identifier, error) {
	if args.HasExplicitIDs() {
		logger.Debugf("Source: using %d explicit identifiers.", len(args.IDs))
		return append([]model.Identifier{}, args.IDs...), nil
	}
	return s.fallback.GetAllItemIDs(ctx, args)
}

// StaticItemSource serves a fixed identifier list.
type StaticItemSource struct {
	ids []model.Identifier
}

// NewStaticItemSource creates a StaticItemSource over ids, in order.
func NewStaticItemSource(ids ...model.Identifier) *StaticItemSource {
	return &StaticItemSource{ids: append([]model.Identifier{}, ids...)}
}

// GetAllItemIDs returns a copy of the list.
func (s *StaticItemSource) GetAllItemIDs(ctx context.Context, args model.JobArguments) ([]model.Identifier, error) {
	return append([]model.Identifier{}, s.ids...), nil
}

var _ port.ItemSource = (*StaticItemSource)(nil)
