// Package metrics provides the metric and tracing backends of the engine:
// Prometheus with an optional /metrics endpoint, and OpenTelemetry over OTLP.
package metrics

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	metrics "github.com/tigerroll/idbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// BackendParams defines the dependencies of the metric and tracing backends.
type BackendParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Metrics   *config.MetricsConfig
	Tracing   *config.TracingConfig
}

// NewMetricRecorder selects the MetricRecorder named by the metrics configuration.
func NewMetricRecorder(p BackendParams) (metrics.MetricRecorder, error) {
	switch p.Metrics.Backend {
	case "", "none":
		return metrics.NewNoOpMetricRecorder(), nil
	case "prometheus":
		rec := NewPrometheusRecorder()
		if p.Metrics.ListenAddress != "" {
			server := NewMetricsServer(p.Metrics.ListenAddress, rec.GetRegistry())
			p.Lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error { return server.Start() },
				OnStop:  server.Stop,
			})
		}
		logger.Infof("Metrics: Prometheus recorder enabled.")
		return rec, nil
	case "otel":
		mp, err := NewMeterProvider(context.Background(), p.Metrics.OTLP, p.Tracing.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP meter provider: %w", err)
		}
		p.Lifecycle.Append(fx.Hook{OnStop: mp.Shutdown})
		rec, err := NewOTelMetricRecorder(mp)
		if err != nil {
			return nil, err
		}
		logger.Infof("Metrics: OpenTelemetry recorder enabled (protocol: %s).", p.Metrics.OTLP.Protocol)
		return rec, nil
	}
	return nil, fmt.Errorf("unknown metrics backend %q", p.Metrics.Backend)
}

// NewTracer returns an OpenTelemetry tracer when tracing is enabled, otherwise a no-op tracer.
func NewTracer(p BackendParams) (metrics.Tracer, error) {
	if !p.Tracing.Enabled {
		return metrics.NewNoOpTracer(), nil
	}
	tp, err := NewTracerProvider(context.Background(), p.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP tracer provider: %w", err)
	}
	// Shutdown flushes the spans still held by the batcher.
	p.Lifecycle.Append(fx.Hook{OnStop: tp.Shutdown})
	logger.Infof("Tracing: OpenTelemetry tracer enabled (service: %s).", p.Tracing.ServiceName)
	return NewOpenTelemetryTracer(tp), nil
}

// Module provides the MetricRecorder and the Tracer.
var Module = fx.Options(
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
