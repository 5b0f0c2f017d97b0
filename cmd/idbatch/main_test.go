package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

func TestApplicationGraphIsValid(t *testing.T) {
	options := GetApplicationOptions(AppSettings{EmbeddedConfig: embeddedConfig, Output: &bytes.Buffer{}})
	options = append(options,
		fx.Supply(JobRequest{}),
		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))),
		fx.Supply(fx.Annotate(context.Background(), fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`))),
	)
	require.NoError(t, fx.ValidateApp(options...))
}

func TestJobRequestArgumentsFallBackToConfig(t *testing.T) {
	cfg := &config.BatchConfig{ChunkSize: 10, Limit: 4}

	args, err := JobRequest{}.Arguments(cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, args.ChunkSize)
	assert.Equal(t, 4, args.Limit)
	assert.False(t, args.HasExplicitIDs())

	args, err = JobRequest{IDs: "1, 2,,3", Limit: "2", ChunkSize: "1"}.Arguments(cfg)
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("1", "2", "3"), args.IDs)
	assert.Equal(t, 2, args.Limit)
	assert.Equal(t, 1, args.ChunkSize)

	_, err = JobRequest{Limit: "many"}.Arguments(cfg)
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const staticConfig = `
idbatch:
  batch:
    job_name: cli-test
    chunk_size: 2
  source:
    type: static
    ids: ["10", "11", "12"]
`

func TestRunApplicationProcessesConfiguredSource(t *testing.T) {
	var out bytes.Buffer
	settings := AppSettings{
		ConfigFilePath: writeConfig(t, staticConfig),
		EmbeddedConfig: embeddedConfig,
		Output:         &out,
	}

	code, err := runApplication(context.Background(), settings, JobRequest{})
	require.NoError(t, err)
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out.String(), "3 items were processed")
	assert.Contains(t, out.String(), "(Success: 3, Ignored: 0 and Failed: 0)")
}

func TestRunApplicationRejectsBadInput(t *testing.T) {
	settings := AppSettings{
		ConfigFilePath: writeConfig(t, staticConfig),
		EmbeddedConfig: embeddedConfig,
		Output:         &bytes.Buffer{},
	}

	code, err := runApplication(context.Background(), settings, JobRequest{ChunkSize: "x"})
	require.NoError(t, err)
	assert.Equal(t, exitBadRequest, code)
}

func TestRunApplicationFailsOnUnknownCheckpoint(t *testing.T) {
	settings := AppSettings{
		ConfigFilePath: writeConfig(t, staticConfig),
		EmbeddedConfig: embeddedConfig,
		Output:         &bytes.Buffer{},
	}

	code, err := runApplication(context.Background(), settings, JobRequest{ResumeJobID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, exitJobFailed, code)
}

func TestRootCommandReportsExitCode(t *testing.T) {
	cmd := NewRootCmd(embeddedConfig)
	cmd.SetArgs([]string{"--config", writeConfig(t, staticConfig), "--ids", "1,2", "--chunk-size", "x"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	var exit exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, exitBadRequest, exit.code)
}
