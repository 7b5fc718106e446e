// Package telemetry provides OpenTelemetry instrumentation for the sync agent.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ConfigMetricsMeterName is the name used for the per-config state meter
	ConfigMetricsMeterName = "github.com/kurum-rebirth/kurum-sync/configs"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/kurum-rebirth/kurum-sync/sync"
)

// ConfigMetrics holds the OpenTelemetry instruments describing the managed configs
type ConfigMetrics struct {
	configsTotal metric.Int64Gauge
}

// NewConfigMetrics creates a new ConfigMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewConfigMetrics(provider metric.MeterProvider) (*ConfigMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ConfigMetricsMeterName)

	configsTotal, err := meter.Int64Gauge(
		"kurum_sync_configs_total",
		metric.WithDescription("Number of sync configs in each phase"),
		metric.WithUnit("{config}"),
	)
	if err != nil {
		return nil, err
	}

	return &ConfigMetrics{
		configsTotal: configsTotal,
	}, nil
}

// RecordPhaseCounts records how many configs are currently in each phase
func (m *ConfigMetrics) RecordPhaseCounts(ctx context.Context, counts map[string]int64) {
	if m == nil || m.configsTotal == nil {
		return
	}

	for phase, count := range counts {
		m.configsTotal.Record(ctx, count, metric.WithAttributes(attribute.String("phase", phase)))
	}
}

// SyncMetrics holds the OpenTelemetry instruments for backup and restore metrics
type SyncMetrics struct {
	operationDuration metric.Float64Histogram
	pollTicks         metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	operationDuration, err := meter.Float64Histogram(
		"kurum_sync_operation_duration_seconds",
		metric.WithDescription("Duration of backup and restore operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	pollTicks, err := meter.Int64Counter(
		"kurum_sync_poll_ticks_total",
		metric.WithDescription("Number of poll ticks run by the coordinator"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		operationDuration: operationDuration,
		pollTicks:         pollTicks,
	}, nil
}

// RecordDuration records the duration of a backup or restore of a config
func (m *SyncMetrics) RecordDuration(
	ctx context.Context, configKey, operation string, duration time.Duration, success bool,
) {
	if m == nil || m.operationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("config", configKey),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	}

	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTick counts one poll tick
func (m *SyncMetrics) RecordTick(ctx context.Context, success bool) {
	if m == nil || m.pollTicks == nil {
		return
	}

	m.pollTicks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
