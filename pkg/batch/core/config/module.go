// Package config provides core configuration structures and utilities for the batch engine.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewBatchConfigProvider extracts *BatchConfig from *Config.
func NewBatchConfigProvider(cfg *Config) *BatchConfig {
	return &cfg.IDBatch.Batch
}

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
// This allows other Fx components to depend only on the logging configuration.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.IDBatch.System.Logging
}

// NewRepositoryConfigProvider extracts *RepositoryConfig from *Config.
func NewRepositoryConfigProvider(cfg *Config) *RepositoryConfig {
	return &cfg.IDBatch.Repository
}

// NewSourceConfigProvider extracts *SourceConfig from *Config.
func NewSourceConfigProvider(cfg *Config) *SourceConfig {
	return &cfg.IDBatch.Source
}

// NewMetricsConfigProvider extracts *MetricsConfig from *Config.
func NewMetricsConfigProvider(cfg *Config) *MetricsConfig {
	return &cfg.IDBatch.Metrics
}

// NewTracingConfigProvider extracts *TracingConfig from *Config.
func NewTracingConfigProvider(cfg *Config) *TracingConfig {
	return &cfg.IDBatch.Tracing
}

// NewExportConfigProvider extracts *ExportConfig from *Config.
func NewExportConfigProvider(cfg *Config) *ExportConfig {
	return &cfg.IDBatch.Export
}

// Module provides *Config and its sections to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(
		NewBatchConfigProvider,
		NewLoggingConfigProvider,
		NewRepositoryConfigProvider,
		NewSourceConfigProvider,
		NewMetricsConfigProvider,
		NewTracingConfigProvider,
		NewExportConfigProvider,
	),
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
