package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// exitError carries a non-zero exit code out of the command.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

const stopTimeout = 30 * time.Second

// NewRootCmd creates the idbatch command. It processes a set of item identifiers in chunks
// and leaves with exit code 0 when every chunk ran, 1 when the job failed and 2 on bad input.
func NewRootCmd(embeddedConfig []byte) *cobra.Command {
	var (
		req        JobRequest
		configFile string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:   "idbatch",
		Short: "Process item identifiers in chunks",
		Long: `idbatch resolves a list of item identifiers, from --ids or from the configured
source, splits it into chunks and runs the item processor over every identifier,
reporting how many items were updated, ignored or failed.`,
		Example: `  # Process the configured source in chunks of 10
  idbatch --chunk-size 10

  # Process three explicit identifiers
  idbatch --ids 12,15,19

  # Continue a job that stopped part way
  idbatch --resume 6b1d1c1e-9a0f-4f55-8d3c-0f3e94a2a6f1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envFile == "" {
				envFile = os.Getenv("ENV_FILE_PATH")
			}
			settings := AppSettings{
				EnvFilePath:    envFile,
				ConfigFilePath: configFile,
				EmbeddedConfig: embeddedConfig,
				Output:         cmd.OutOrStdout(),
			}
			code, err := runApplication(cmd.Context(), settings, req)
			if err != nil {
				return err
			}
			if code != exitSuccess {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.IDs, "ids", "", "comma separated item identifiers (overrides the configured source)")
	cmd.Flags().StringVar(&req.Limit, "limit", "", "maximum number of items to process (empty = configured limit)")
	cmd.Flags().StringVar(&req.ChunkSize, "chunk-size", "", "identifiers per chunk (empty = configured chunk size)")
	cmd.Flags().StringVar(&req.ResumeJobID, "resume", "", "resume the checkpointed job with this ID")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file replacing the embedded defaults")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to a .env file (default $ENV_FILE_PATH or .env)")
	cmd.MarkFlagsMutuallyExclusive("resume", "ids")

	return cmd
}

// runApplication starts the fx application, waits for the job to shut it down and returns
// the job's exit code.
func runApplication(ctx context.Context, settings AppSettings, req JobRequest) (int, error) {
	options := GetApplicationOptions(settings)
	options = append(options,
		fx.Supply(req),
		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))),
		fx.Supply(fx.Annotate(ctx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`))),
	)

	app := fx.New(options...)
	if err := app.Err(); err != nil {
		return exitJobFailed, err
	}

	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return exitJobFailed, err
	}

	signal := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Errorf("Application stop failed: %v", err)
	}
	return signal.ExitCode, nil
}
