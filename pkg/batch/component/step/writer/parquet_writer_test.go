package writer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

func sampleResult(t *testing.T) *model.JobResult {
	t.Helper()
	ledger := model.NewOutcomeLedger()
	require.NoError(t, ledger.Record("3", model.OutcomeSucceeded))
	require.NoError(t, ledger.Record("1", model.OutcomeFailed))
	require.NoError(t, ledger.Record("2", model.OutcomeIgnored))
	return &model.JobResult{
		JobID:   "job-1",
		JobName: "idbatch",
		Success: true,
		Ledger:  ledger,
		EndTime: time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC),
	}
}

func TestLedgerRowsFollowProcessingOrder(t *testing.T) {
	rows := LedgerRows(sampleResult(t).Ledger)
	assert.Equal(t, []LedgerRow{
		{Sequence: 1, ID: "3", Outcome: "succeeded"},
		{Sequence: 2, ID: "1", Outcome: "failed"},
		{Sequence: 3, ID: "2", Outcome: "ignored"},
	}, rows)
	assert.Nil(t, LedgerRows(nil))
}

func TestLedgerRowsKeepOneOutcomePerAttempt(t *testing.T) {
	ledger := model.NewOutcomeLedger()
	require.NoError(t, ledger.Record("1", model.OutcomeFailed))
	require.NoError(t, ledger.Record("1", model.OutcomeSucceeded))
	require.NoError(t, ledger.Record("2", model.OutcomeIgnored))

	rows := LedgerRows(ledger)
	require.Len(t, rows, 3)
	assert.Equal(t, []LedgerRow{
		{Sequence: 1, ID: "1", Outcome: "succeeded"},
		{Sequence: 2, ID: "1", Outcome: "failed"},
		{Sequence: 3, ID: "2", Outcome: "ignored"},
	}, rows)
}

func TestParquetLedgerWriterExportsToLocalStorage(t *testing.T) {
	dir := t.TempDir()
	conn, err := local.NewLocalAdapter(dir, "export")
	require.NoError(t, err)

	for _, codec := range []string{"", "GZIP", "NONE"} {
		w, err := NewParquetLedgerWriter(conn, "ledgers", codec)
		require.NoError(t, err)

		name, err := w.Export(context.Background(), sampleResult(t))
		require.NoError(t, err)
		assert.Equal(t, "ledgers/dt=2026-10-14/ledger_job-1.parquet", name)

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		require.Greater(t, len(data), 8)
		assert.Equal(t, "PAR1", string(data[:4]))
		assert.Equal(t, "PAR1", string(data[len(data)-4:]))
	}
}

func TestParquetLedgerWriterSkipsEmptyLedger(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "export")
	require.NoError(t, err)
	w, err := NewParquetLedgerWriter(conn, "", "SNAPPY")
	require.NoError(t, err)

	name, err := w.Export(context.Background(), &model.JobResult{JobID: "empty", Ledger: model.NewOutcomeLedger()})
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestNewParquetLedgerWriterRejectsUnknownCodec(t *testing.T) {
	_, err := NewParquetLedgerWriter(nil, "", "LZ4")
	assert.Error(t, err)
}

type failingStorage struct{ storage.StorageConnection }

func (failingStorage) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	return errors.New("disk full")
}
func (failingStorage) Name() string { return "failing" }

func TestAfterJobSwallowsExportErrors(t *testing.T) {
	w, err := NewParquetLedgerWriter(failingStorage{}, "", "NONE")
	require.NoError(t, err)

	_, err = w.Export(context.Background(), sampleResult(t))
	assert.Error(t, err)
	assert.NotPanics(t, func() { w.AfterJob(context.Background(), sampleResult(t)) })
	assert.NotPanics(t, func() { w.AfterJob(context.Background(), nil) })
}

func TestNewLedgerExportListeners(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	listeners, err := NewLedgerExportListeners(lc, &config.ExportConfig{})
	require.NoError(t, err)
	assert.Empty(t, listeners)

	listeners, err = NewLedgerExportListeners(lc, &config.ExportConfig{ParquetDir: t.TempDir(), Storage: "local"})
	require.NoError(t, err)
	assert.Len(t, listeners, 1)

	_, err = NewLedgerExportListeners(lc, &config.ExportConfig{ParquetDir: "x", Storage: "s3"})
	assert.Error(t, err)

	lc.RequireStart().RequireStop()
}
