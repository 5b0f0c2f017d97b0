// Command idbatch runs one chunked batch job over a list of item identifiers.
package main

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// embeddedConfig holds the default application configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd(embeddedConfig).ExecuteContext(ctx)
	var exit exitError
	switch {
	case errors.As(err, &exit):
		stop()
		os.Exit(exit.code)
	case err != nil:
		logger.Errorf("idbatch: %v", err)
		stop()
		os.Exit(exitBadRequest)
	}
}
