package item

import (
	"fmt"

	"go.uber.org/fx"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// NewItemProcessorFromConfig returns the built-in processor named by the batch configuration,
// wrapped in a CountingItemProcessor.
func NewItemProcessorFromConfig(cfg *config.BatchConfig) (port.ItemProcessor, error) {
	var base port.ItemProcessor
	switch cfg.Processor {
	case "", "passthrough":
		base = NewPassThroughProcessor()
	case "ignore":
		base = NewIgnoreAllProcessor()
	default:
		return nil, fmt.Errorf("unknown item processor %q", cfg.Processor)
	}
	logger.Debugf("Item processor '%s' selected.", cfg.Processor)
	return NewCountingItemProcessor(base, DefaultCountKey), nil
}

// Module provides the item processor. Hosts with their own processor leave this module out
// and provide a port.ItemProcessor themselves.
var Module = fx.Options(
	fx.Provide(NewItemProcessorFromConfig),
)
