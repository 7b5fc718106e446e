package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kurum-rebirth/kurum-sync/internal/events"
	"github.com/kurum-rebirth/kurum-sync/internal/expander"
	"github.com/kurum-rebirth/kurum-sync/internal/process"
	"github.com/kurum-rebirth/kurum-sync/internal/settings"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

// Orchestrator runs the backup and restore state machine over a config set
//
//go:generate mockgen -destination=mocks/mock_orchestrator.go -package=mocks -source=orchestrator.go Orchestrator
type Orchestrator interface {
	// Poll runs one tick: init check, backup check and restore check.
	// It does nothing while storage is not authorized.
	Poll(ctx context.Context) error

	// Backup packs and uploads every backup task of cfg, then refreshes the markers
	Backup(ctx context.Context, cfg *syncconfig.SyncConfig) error

	// Restore downloads and extracts every restore task of cfg, then refreshes the local marker
	Restore(ctx context.Context, cfg *syncconfig.SyncConfig) error
}

var operationLabels = map[status.Operation]string{
	status.OperationBackup:  "Backup",
	status.OperationRestore: "Restore",
}

// defaultOrchestrator is the default implementation of Orchestrator
type defaultOrchestrator struct {
	configs *syncconfig.Set
	storage storage.Storage
	handler events.Handler

	settings settings.Store
	markers  status.MarkerStore
	expander expander.Expander
	lister   process.Lister
	tempDir  string

	stateSvc    state.ConfigStateService
	syncMetrics *telemetry.SyncMetrics
	tracer      trace.Tracer
	newRunID    func() string

	// previous is the process snapshot of the last successful listing
	previous process.Snapshot
}

// New creates an orchestrator over configs. A settings store, a marker store
// and a temp dir must be provided through options.
func New(
	configs *syncconfig.Set,
	store storage.Storage,
	handler events.Handler,
	opts ...Option,
) (Orchestrator, error) {
	if configs == nil {
		return nil, fmt.Errorf("config set cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("event handler cannot be nil")
	}

	o := &defaultOrchestrator{
		configs:  configs,
		storage:  store,
		handler:  handler,
		newRunID: uuid.NewString,
		previous: process.NewSnapshot(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if o.markers == nil {
		return nil, fmt.Errorf("marker store is required")
	}
	if o.tempDir == "" {
		return nil, fmt.Errorf("temp dir is required")
	}
	if o.lister == nil {
		o.lister = process.NewSystemLister()
	}
	if o.expander == nil {
		o.expander = expander.ForPlatform(configs.Platform(), o.settings)
	}
	return o, nil
}

// Poll runs one tick over all configs
func (o *defaultOrchestrator) Poll(ctx context.Context) error {
	if !o.storage.IsAuthorized(ctx) {
		slog.Debug("Storage is not authorized, skipping poll")
		return nil
	}

	var errs []error
	errs = append(errs, o.checkConfigInit(ctx)...)
	errs = append(errs, o.checkBackup(ctx)...)
	errs = append(errs, o.checkRestore(ctx)...)
	return errors.Join(errs...)
}

// isActive reports whether cfg takes part in the current tick
func (o *defaultOrchestrator) isActive(cfg *syncconfig.SyncConfig) bool {
	return cfg.IsActive(o.configs.Platform())
}

// checkConfigInit suspends active configs with an unanswered required init task
func (o *defaultOrchestrator) checkConfigInit(ctx context.Context) []error {
	var errs []error
	for _, cfg := range o.configs.All() {
		if !o.isActive(cfg) {
			continue
		}

		task, err := o.firstUnmetInitTask(cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("init check for %s: %w", cfg.Key, err))
			continue
		}
		if task == nil {
			continue
		}

		slog.Info("Suspending config until init task is answered",
			"config", cfg.Key,
			"task", task.Name)
		cfg.Disabled = true
		o.handler.OnInitTaskRequired(cfg, task)
		o.updateStatus(ctx, cfg.Key, func(s *status.SyncStatus) {
			s.Phase = status.SyncPhaseSuspended
			s.Message = fmt.Sprintf("Waiting for init task %s", task.Name)
			s.PendingInitTask = task.Name
		})
	}
	return errs
}

// firstUnmetInitTask returns the first required init task of cfg without a value
func (o *defaultOrchestrator) firstUnmetInitTask(cfg *syncconfig.SyncConfig) (*syncconfig.InitTask, error) {
	opts := cfg.Options(o.configs.Platform())
	for i := range opts.InitTasks {
		task := &opts.InitTasks[i]
		if !task.IsRequired() {
			continue
		}
		value, ok, err := o.settings.Get(cfg.Key, task.Name)
		if err != nil {
			return nil, err
		}
		if !ok || !settings.IsSet(value) {
			return task, nil
		}
	}
	return nil, nil
}

// checkBackup backs up every active config watching a process that exited
// since the previous tick
func (o *defaultOrchestrator) checkBackup(ctx context.Context) []error {
	current, err := o.lister.Snapshot(ctx)
	if err != nil {
		slog.Warn("Failed to list processes, skipping backup check", "error", err)
		return nil
	}

	disappeared := current.Disappeared(o.previous)
	o.previous = current

	if len(disappeared) > 0 {
		slog.Debug("Processes exited", "processes", disappeared)
	}

	var errs []error
	backedUp := make(map[string]bool)
	for _, name := range disappeared {
		for _, cfg := range o.configs.Watching(name) {
			if !o.isActive(cfg) || backedUp[cfg.Key] {
				continue
			}
			backedUp[cfg.Key] = true

			slog.Info("Watched process exited, starting backup",
				"process", name,
				"config", cfg.Key)
			if err := o.Backup(ctx, cfg); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// checkRestore restores every active config whose remote marker is newer
// than its local marker
func (o *defaultOrchestrator) checkRestore(ctx context.Context) []error {
	var errs []error
	for _, cfg := range o.configs.All() {
		if !o.isActive(cfg) {
			continue
		}

		local, err := o.markers.GetMarker(ctx, cfg.Key)
		if err != nil {
			errs = append(errs, fmt.Errorf("read local marker for %s: %w", cfg.Key, err))
			continue
		}
		remote, err := o.storage.GetRemoteMarker(ctx, cfg.Key)
		if err != nil {
			errs = append(errs, fmt.Errorf("read remote marker for %s: %w", cfg.Key, err))
			continue
		}

		if remote == storage.NoMarker || local >= remote {
			continue
		}

		slog.Info("Remote copy is newer, starting restore",
			"config", cfg.Key,
			"local_marker", local,
			"remote_marker", remote)
		if err := o.Restore(ctx, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// updateStatus applies fn to the stored status of key when a state service is configured
func (o *defaultOrchestrator) updateStatus(ctx context.Context, key string, fn func(*status.SyncStatus)) {
	if o.stateSvc == nil {
		return
	}
	_, err := o.stateSvc.UpdateStatusAtomically(ctx, key, func(s *status.SyncStatus) bool {
		fn(s)
		return true
	})
	if err != nil {
		slog.Warn("Failed to update sync status", "config", key, "error", err)
	}
}

// beginRun marks key as running op and returns the start time
func (o *defaultOrchestrator) beginRun(
	ctx context.Context, key string, phase status.SyncPhase, op status.Operation, runID string,
) time.Time {
	start := time.Now()
	o.updateStatus(ctx, key, func(s *status.SyncStatus) {
		s.Phase = phase
		s.Message = fmt.Sprintf("%s in progress", operationLabels[op])
		s.LastOperation = op
		s.LastRunID = runID
		s.LastAttempt = &start
	})
	return start
}

// finishRun records the outcome of a run in status and metrics
func (o *defaultOrchestrator) finishRun(
	ctx context.Context, key string, op status.Operation, start time.Time, marker int64, runErr error,
) {
	o.syncMetrics.RecordDuration(ctx, key, string(op), time.Since(start), runErr == nil)

	now := time.Now()
	o.updateStatus(ctx, key, func(s *status.SyncStatus) {
		if runErr != nil {
			s.Phase = status.SyncPhaseFailed
			s.Message = runErr.Error()
			s.AttemptCount++
			return
		}
		s.Phase = status.SyncPhaseComplete
		s.Message = fmt.Sprintf("%s completed", operationLabels[op])
		s.AttemptCount = 0
		s.Marker = marker
		if op == status.OperationBackup {
			s.LastBackupTime = &now
		} else {
			s.LastRestoreTime = &now
		}
	})
}
