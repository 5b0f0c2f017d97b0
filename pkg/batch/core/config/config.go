// Package config provides structures and utilities for managing application configuration.
package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// BatchConfig holds configuration specific to the batch processing engine.
type BatchConfig struct {
	// JobName is the logical name reported in logs, metrics and checkpoints.
	JobName string `yaml:"job_name" validate:"required"`
	// ChunkSize is the number of identifiers per chunk when the job input does not set one.
	ChunkSize int `yaml:"chunk_size"`
	// Limit caps the number of items when the job input does not set one. 0 means no cap.
	Limit int `yaml:"limit" validate:"gte=0"`
	// CheckpointEnabled saves the resumption state after every chunk.
	CheckpointEnabled bool `yaml:"checkpoint_enabled"`
	// Processor names the built-in item processor: "passthrough" or "ignore".
	Processor string `yaml:"processor" validate:"oneof=passthrough ignore"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// BadgerConfig locates the badger checkpoint store.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// RepositoryConfig selects where checkpoints are stored.
type RepositoryConfig struct {
	// Type is one of "inmemory", "sql" or "badger".
	Type string `yaml:"type" validate:"oneof=inmemory sql badger"`
	// DBRef names the entry of the database section used by the "sql" type.
	DBRef  string       `yaml:"db_ref"`
	Badger BadgerConfig `yaml:"badger"`
}

// SourceConfig configures the item source used when the job input carries no ids.
type SourceConfig struct {
	// Type is "static" or "sql".
	Type string `yaml:"type" validate:"oneof=static sql"`
	// IDs is the universe of the static source.
	IDs []string `yaml:"ids"`
	// Driver is the database/sql driver name of the sql source: "sqlite3", "mysql" or "pgx".
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite3 mysql pgx"`
	DSN    string `yaml:"dsn"`
	// Query selects one identifier column, in processing order.
	Query string `yaml:"query"`
}

// OTLPConfig holds the settings of an OTLP exporter.
type OTLPConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Protocol is "grpc" or "http".
	Protocol string `yaml:"protocol" validate:"omitempty,oneof=grpc http"`
	Insecure bool   `yaml:"insecure"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "none", "prometheus" or "otel".
	Backend string `yaml:"backend" validate:"oneof=none prometheus otel"`
	// ListenAddress is where the prometheus /metrics endpoint is served. Empty disables the server.
	ListenAddress string     `yaml:"listen_address"`
	OTLP          OTLPConfig `yaml:"otlp"`
	// Async moves metric recording off the job goroutine through a bounded queue.
	Async bool `yaml:"async"`
	// AsyncBufferSize is the queue length of the async recorder. Events beyond it are dropped.
	AsyncBufferSize int `yaml:"async_buffer_size" validate:"gte=0"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool       `yaml:"enabled"`
	ServiceName string     `yaml:"service_name"`
	OTLP        OTLPConfig `yaml:"otlp"`
}

// ExportConfig configures the ledger export written after a job finishes.
type ExportConfig struct {
	// ParquetDir is the output directory, or the object prefix on gcs. Empty disables the export.
	ParquetDir string `yaml:"parquet_dir"`
	// Compression is "SNAPPY", "GZIP" or "NONE".
	Compression string `yaml:"compression" validate:"omitempty,oneof=SNAPPY GZIP NONE"`
	// Storage is "local" or "gcs".
	Storage         string `yaml:"storage" validate:"omitempty,oneof=local gcs"`
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

// IDBatchConfig holds all configuration under the "idbatch" top-level key.
type IDBatchConfig struct {
	Batch      BatchConfig      `yaml:"batch"`
	System     SystemConfig     `yaml:"system"`
	Repository RepositoryConfig `yaml:"repository"`
	Source     SourceConfig     `yaml:"source"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Export     ExportConfig     `yaml:"export"`
	// AdaptorConfigs holds the named database connections, decoded by the database adapter.
	AdaptorConfigs map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	IDBatch IDBatchConfig `yaml:"idbatch"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		IDBatch: IDBatchConfig{
			Batch: BatchConfig{
				JobName:           "idbatch",
				ChunkSize:         5,
				CheckpointEnabled: true,
				Processor:         "passthrough",
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO", Format: "console"},
			},
			Repository: RepositoryConfig{
				Type:   "inmemory",
				DBRef:  "metadata",
				Badger: BadgerConfig{Path: "./data/checkpoints"},
			},
			Source: SourceConfig{Type: "static"},
			Metrics: MetricsConfig{
				Backend:         "none",
				OTLP:            OTLPConfig{Protocol: "grpc"},
				AsyncBufferSize: 100,
			},
			Tracing: TracingConfig{
				ServiceName: "idbatch",
				OTLP:        OTLPConfig{Protocol: "grpc"},
			},
			Export:         ExportConfig{Compression: "SNAPPY", Storage: "local"},
			AdaptorConfigs: map[string]interface{}{},
		},
	}
}

// Validate checks the configuration against its validation tags and the cross-field rules
// the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return exception.NewValidationError(moduleName, "invalid configuration", err)
	}
	src := c.IDBatch.Source
	if src.Type == "sql" && (src.Driver == "" || src.DSN == "" || src.Query == "") {
		return exception.NewValidationError(moduleName, "sql source requires driver, dsn and query", nil)
	}
	if exp := c.IDBatch.Export; exp.Storage == "gcs" && exp.ParquetDir != "" && exp.Bucket == "" {
		return exception.NewValidationError(moduleName, "gcs export requires a bucket", nil)
	}
	if c.IDBatch.Repository.Type == "sql" {
		if _, ok := c.IDBatch.AdaptorConfigs[c.IDBatch.Repository.DBRef]; !ok {
			return exception.NewValidationError(moduleName, "sql repository references unknown database '"+c.IDBatch.Repository.DBRef+"'", nil)
		}
	}
	return nil
}
