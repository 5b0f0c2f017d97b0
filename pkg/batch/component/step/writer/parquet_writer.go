// Package writer exports finished jobs' outcome ledgers as Parquet files.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage"
	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const (
	moduleName = "writer"
	// parallelism is the number of marshalling goroutines of the parquet writer.
	parallelism = 2
)

// LedgerRow is one attempted identifier in an exported ledger.
type LedgerRow struct {
	Sequence int64  `parquet:"name=sequence, type=INT64"`
	ID       string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Outcome  string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// LedgerRows flattens a ledger in processing order. Sequence starts at 1.
//
// Each group entry is consumed once, so an identifier attempted several times yields one
// row per attempt and the row outcomes add up to the ledger counts. Repeated attempts of one
// identifier take their outcomes in Succeeded, Ignored, Failed order, since the ledger does
// not keep the order across groups.
func LedgerRows(ledger *model.OutcomeLedger) []LedgerRow {
	if ledger == nil {
		return nil
	}
	pending := make(map[model.Identifier][]model.Outcome, ledger.Len())
	for _, group := range []struct {
		ids     []model.Identifier
		outcome model.Outcome
	}{
		{ledger.Succeeded, model.OutcomeSucceeded},
		{ledger.Ignored, model.OutcomeIgnored},
		{ledger.Failed, model.OutcomeFailed},
	} {
		for _, id := range group.ids {
			pending[id] = append(pending[id], group.outcome)
		}
	}

	rows := make([]LedgerRow, 0, ledger.Len())
	for i, id := range ledger.AllProcessed {
		var outcome model.Outcome
		if queue := pending[id]; len(queue) > 0 {
			outcome, pending[id] = queue[0], queue[1:]
		}
		rows = append(rows, LedgerRow{Sequence: int64(i + 1), ID: id.String(), Outcome: outcome.String()})
	}
	return rows
}

// ParquetLedgerWriter is a JobListener that uploads the ledger of every finished job to
// <baseDir>/dt=YYYY-MM-DD/ledger_<job id>.parquet on its storage connection.
// Export failures are logged; the job result is never changed.
type ParquetLedgerWriter struct {
	conn        storage.StorageConnection
	baseDir     string
	compression parquet.CompressionCodec
}

// NewParquetLedgerWriter creates a writer. compressionType is "SNAPPY", "GZIP" or "NONE";
// empty means SNAPPY.
func NewParquetLedgerWriter(conn storage.StorageConnection, baseDir, compressionType string) (*ParquetLedgerWriter, error) {
	if compressionType == "" {
		compressionType = "SNAPPY"
	}
	codec, err := getCompressionCodec(compressionType)
	if err != nil {
		return nil, exception.NewValidationError(moduleName, fmt.Sprintf("invalid compression type '%s'", compressionType), err)
	}
	return &ParquetLedgerWriter{conn: conn, baseDir: baseDir, compression: codec}, nil
}

func (w *ParquetLedgerWriter) BeforeJob(ctx context.Context, jobID string, args model.JobArguments) {}

func (w *ParquetLedgerWriter) AfterJob(ctx context.Context, result *model.JobResult) {
	if result == nil {
		return
	}
	objectName, err := w.Export(ctx, result)
	if err != nil {
		logger.Errorf("ParquetLedgerWriter: Failed to export ledger of job '%s': %v", result.JobID, err)
		return
	}
	if objectName != "" {
		logger.Infof("ParquetLedgerWriter: Exported ledger of job '%s' to %s (%s).", result.JobID, objectName, w.conn.Name())
	}
}

// ObjectName returns the object the ledger of result is written to.
func (w *ParquetLedgerWriter) ObjectName(result *model.JobResult) string {
	day := result.EndTime
	if day.IsZero() {
		day = time.Now()
	}
	return path.Join(strings.TrimSuffix(w.baseDir, "/"), "dt="+day.UTC().Format("2006-01-02"), "ledger_"+result.JobID+".parquet")
}

// Export writes the ledger of result and returns the object name. A job that attempted
// no items produces no file and an empty name.
func (w *ParquetLedgerWriter) Export(ctx context.Context, result *model.JobResult) (string, error) {
	rows := LedgerRows(result.Ledger)
	if len(rows) == 0 {
		logger.Debugf("ParquetLedgerWriter: Job '%s' attempted no items, skipping export.", result.JobID)
		return "", nil
	}

	buf, err := w.encode(rows)
	if err != nil {
		return "", err
	}

	objectName := w.ObjectName(result)
	if err := w.conn.Upload(ctx, objectName, buf, "application/octet-stream"); err != nil {
		return "", exception.NewBatchError(moduleName, fmt.Sprintf("failed to upload %s", objectName), err)
	}
	return objectName, nil
}

func (w *ParquetLedgerWriter) encode(rows []LedgerRow) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(LedgerRow), parallelism)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to create parquet writer", err)
	}
	pw.CompressionType = w.compression

	var multiErr error
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewBatchError(moduleName, fmt.Sprintf("failed to write row %d", row.Sequence), err))
			break
		}
	}

	// WriteStop can panic inside the library on malformed schemas.
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, exception.NewBatchErrorf(moduleName, "parquet writer panicked during WriteStop: %v", r))
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewBatchError(moduleName, "failed to finalize parquet file", err))
		}
	}()

	if multiErr != nil {
		return nil, multiErr
	}
	return buf, nil
}

// getCompressionCodec returns the Parquet compression codec from a string.
func getCompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

var _ port.JobListener = (*ParquetLedgerWriter)(nil)
