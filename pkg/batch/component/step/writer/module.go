package writer

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage/gcs"
	"github.com/tigerroll/idbatch/pkg/batch/adapter/storage/local"
	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// OpenStorage opens the storage connection the export is written to. For local storage the
// export directory is the connection root; for gcs it is the object prefix in the bucket.
// The returned base directory is the object prefix to write under.
func OpenStorage(ctx context.Context, cfg *config.ExportConfig) (storage.StorageConnection, string, error) {
	switch cfg.Storage {
	case "", local.ProviderType:
		conn, err := local.NewLocalAdapter(cfg.ParquetDir, "export")
		return conn, "", err
	case gcs.ProviderType:
		conn, err := gcs.NewGCSAdapter(ctx, cfg.Bucket, "export", gcs.CredentialsOption(cfg.CredentialsFile)...)
		return conn, cfg.ParquetDir, err
	default:
		return nil, "", fmt.Errorf("unknown export storage %q", cfg.Storage)
	}
}

// NewLedgerExportListeners returns the ledger writer as a job listener when an export
// directory is configured, and nothing otherwise.
func NewLedgerExportListeners(lc fx.Lifecycle, cfg *config.ExportConfig) ([]port.JobListener, error) {
	if cfg.ParquetDir == "" {
		logger.Debugf("Ledger export disabled.")
		return nil, nil
	}
	conn, baseDir, err := OpenStorage(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	w, err := NewParquetLedgerWriter(conn, baseDir, cfg.Compression)
	if err != nil {
		conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})
	logger.Infof("Ledger export enabled: storage=%s dir=%s", conn.Type(), cfg.ParquetDir)
	return []port.JobListener{w}, nil
}

// Module adds the ledger writer to the job listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLedgerExportListeners,
		fx.ResultTags(`group:"job_listeners,flatten"`),
	)),
)
