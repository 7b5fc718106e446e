package sync

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/kurum-rebirth/kurum-sync/internal/expander"
	"github.com/kurum-rebirth/kurum-sync/internal/process"
	"github.com/kurum-rebirth/kurum-sync/internal/settings"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

// Option configures the orchestrator
type Option func(*defaultOrchestrator) error

// WithSettings sets the user settings store consulted for init tasks and path variables
func WithSettings(store settings.Store) Option {
	return func(o *defaultOrchestrator) error {
		if store == nil {
			return fmt.Errorf("settings store cannot be nil")
		}
		o.settings = store
		return nil
	}
}

// WithMarkerStore sets the store holding local markers
func WithMarkerStore(markers status.MarkerStore) Option {
	return func(o *defaultOrchestrator) error {
		if markers == nil {
			return fmt.Errorf("marker store cannot be nil")
		}
		o.markers = markers
		return nil
	}
}

// WithTempDir sets the directory temporary archives are written below
func WithTempDir(dir string) Option {
	return func(o *defaultOrchestrator) error {
		if dir == "" {
			return fmt.Errorf("temp dir cannot be empty")
		}
		o.tempDir = dir
		return nil
	}
}

// WithProcessLister replaces the system process lister
func WithProcessLister(lister process.Lister) Option {
	return func(o *defaultOrchestrator) error {
		if lister == nil {
			return fmt.Errorf("process lister cannot be nil")
		}
		o.lister = lister
		return nil
	}
}

// WithExpander replaces the platform path expander
func WithExpander(exp expander.Expander) Option {
	return func(o *defaultOrchestrator) error {
		if exp == nil {
			return fmt.Errorf("expander cannot be nil")
		}
		o.expander = exp
		return nil
	}
}

// WithStateService records run progress in svc
func WithStateService(svc state.ConfigStateService) Option {
	return func(o *defaultOrchestrator) error {
		o.stateSvc = svc
		return nil
	}
}

// WithSyncMetrics sets the sync metrics for the orchestrator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(o *defaultOrchestrator) error {
		o.syncMetrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used for backup and restore spans
func WithTracer(tracer trace.Tracer) Option {
	return func(o *defaultOrchestrator) error {
		o.tracer = tracer
		return nil
	}
}

// WithRunIDGenerator replaces the generator of run ids
func WithRunIDGenerator(gen func() string) Option {
	return func(o *defaultOrchestrator) error {
		if gen == nil {
			return fmt.Errorf("run id generator cannot be nil")
		}
		o.newRunID = gen
		return nil
	}
}
