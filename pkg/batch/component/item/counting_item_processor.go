package item

import (
	"context"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// DefaultCountKey is the run context key used by CountingItemProcessor when none is given.
const DefaultCountKey = "processor.call_count"

// CountingItemProcessor decorates a processor and keeps the number of calls in the run
// context, so the count survives a checkpoint and resume.
type CountingItemProcessor struct {
	next port.ItemProcessor
	key  string
}

// NewCountingItemProcessor wraps next, storing the count under key.
func NewCountingItemProcessor(next port.ItemProcessor, key string) *CountingItemProcessor {
	if key == "" {
		key = DefaultCountKey
	}
	return &CountingItemProcessor{next: next, key: key}
}

func (p *CountingItemProcessor) ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
	if rc != nil {
		if rc.Values == nil {
			rc.Values = model.NewExecutionContext()
		}
		count, _ := rc.Values.GetInt(p.key)
		rc.Values.Put(p.key, count+1)
	}
	return p.next.ExecuteOperation(ctx, id, rc)
}

// Count returns the count stored in rc.
func (p *CountingItemProcessor) Count(rc *model.RunContext) int {
	if rc == nil || rc.Values == nil {
		return 0
	}
	count, _ := rc.Values.GetInt(p.key)
	return count
}

var _ port.ItemProcessor = (*CountingItemProcessor)(nil)
