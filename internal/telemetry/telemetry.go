package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kurum-rebirth/kurum-sync/internal/versions"
)

// Telemetry owns the tracer and meter providers of the agent
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	registry       *prometheus.Registry
	shutdowns      []func(context.Context) error
}

// New builds the providers described by cfg and installs them as the OTel
// globals. Sections that are nil or disabled get no-op providers. The caller
// must call Shutdown to flush pending data.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	version := cfg.ServiceVersion
	if version == "" {
		version = versions.GetVersionInfo().Version
	}
	res, err := newResource(ctx, cfg.serviceName(), version)
	if err != nil {
		return nil, err
	}

	if cfg.tracingEnabled() {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(Propagator())
		slog.Info("Tracing enabled", "endpoint", cfg.endpoint(), "sampling", cfg.Tracing.sampling())
	}

	if cfg.metricsEnabled() {
		mp, registry, err := newMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.meterProvider = mp
		t.registry = registry
		t.shutdowns = append(t.shutdowns, mp.Shutdown)

		otel.SetMeterProvider(mp)
		slog.Info("Metrics enabled", "exporter", cfg.Metrics.exporter())
	}

	if cfg.Insecure && len(t.shutdowns) > 0 {
		slog.Warn("Telemetry is exported over plain HTTP", "endpoint", cfg.endpoint())
	}
	return t, nil
}

// Propagator is the W3C trace context and baggage propagator used for
// incoming status server requests
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// TracerProvider returns the tracer provider, never nil
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider, never nil
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when metrics
// are not exported for Prometheus
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops every SDK provider. Calling it again is a no-op.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range t.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shutdown telemetry: %w", err)
	}
	return nil
}
