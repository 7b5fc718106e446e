// Package telemetry provides OpenTelemetry instrumentation for the sync agent.
// Traces are exported over OTLP. Metrics are pushed over OTLP or exposed
// for Prometheus scraping on the status server.
package telemetry

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultServiceName is reported as service.name when none is configured
	DefaultServiceName = "kurum-sync"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace sampling ratio. An agent runs a handful of
	// backups a day, so every one of them is kept.
	DefaultSampling = 1.0

	// DefaultPushInterval is how often OTLP metrics are pushed
	DefaultPushInterval = time.Minute

	// MetricsExporterOTLP pushes metrics to the OTLP endpoint
	MetricsExporterOTLP = "otlp"

	// MetricsExporterPrometheus exposes metrics on the status server's /metrics route
	MetricsExporterPrometheus = "prometheus"
)

// Config is the telemetry section of the host config
type Config struct {
	Enabled        bool           `yaml:"enabled"`
	ServiceName    string         `yaml:"serviceName,omitempty"`
	ServiceVersion string         `yaml:"serviceVersion,omitempty"`
	Endpoint       string         `yaml:"endpoint,omitempty"`
	Insecure       bool           `yaml:"insecure,omitempty"`
	Tracing        *TracingConfig `yaml:"tracing,omitempty"`
	Metrics        *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures the sync and status server spans
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root spans kept, in (0, 1]
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig configures the sync and status server instruments
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" (default) or "prometheus"
	Exporter string `yaml:"exporter,omitempty"`

	// Interval is the OTLP push interval, e.g. "30s". Ignored by Prometheus.
	Interval string `yaml:"interval,omitempty"`
}

func (c *Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

func (c *Config) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// tracingEnabled reports whether spans are exported
func (c *Config) tracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

// metricsEnabled reports whether instruments are exported
func (c *Config) metricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// sampling returns the configured sampling ratio or DefaultSampling
func (c *TracingConfig) sampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// exporter returns the configured exporter or MetricsExporterOTLP
func (c *MetricsConfig) exporter() string {
	if c == nil || c.Exporter == "" {
		return MetricsExporterOTLP
	}
	return c.Exporter
}

// pushInterval returns the parsed interval or DefaultPushInterval. Validate
// has already rejected unparsable values.
func (c *MetricsConfig) pushInterval() time.Duration {
	if c == nil || c.Interval == "" {
		return DefaultPushInterval
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return DefaultPushInterval
	}
	return d
}

// Validate checks the sections that are enabled. A nil or disabled config is
// valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if c.tracingEnabled() {
		if s := c.Tracing.sampling(); s <= 0 || s > 1 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be in (0, 1], got %g", s))
		}
	}

	if c.metricsEnabled() {
		switch c.Metrics.exporter() {
		case MetricsExporterOTLP, MetricsExporterPrometheus:
		default:
			errs = append(errs, fmt.Errorf("metrics: unsupported exporter '%s'", c.Metrics.Exporter))
		}

		if c.Metrics.Interval != "" {
			d, err := time.ParseDuration(c.Metrics.Interval)
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("metrics: invalid interval: %w", err))
			case d < time.Second:
				errs = append(errs, fmt.Errorf("metrics: interval must be at least 1s, got %s", d))
			}
		}
	}

	return errors.Join(errs...)
}
