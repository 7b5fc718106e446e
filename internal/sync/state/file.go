package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	// Thread-safe status management (per-config)
	mu             sync.RWMutex
	cachedStatuses map[string]*status.SyncStatus
}

// NewFileStateService creates a new file-based config state service
func NewFileStateService(statusPersistence status.StatusPersistence) ConfigStateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
		cachedStatuses:    make(map[string]*status.SyncStatus),
	}
}

func (f *fileStateService) Initialize(ctx context.Context, configs []*syncconfig.SyncConfig, platform string) error {
	f.mu.Lock()
	f.cachedStatuses = make(map[string]*status.SyncStatus, len(configs))
	f.mu.Unlock()

	for _, cfg := range configs {
		f.loadOrInitializeConfigStatus(ctx, cfg, platform)
	}
	return nil
}

func (f *fileStateService) ListSyncStatuses(_ context.Context) (map[string]*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Return copies to prevent external modification
	result := make(map[string]*status.SyncStatus, len(f.cachedStatuses))
	for key, syncStatus := range f.cachedStatuses {
		if syncStatus != nil {
			statusCopy := *syncStatus
			result[key] = &statusCopy
		}
	}
	return result, nil
}

func (f *fileStateService) GetSyncStatus(_ context.Context, key string) (*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	syncStatus, exists := f.cachedStatuses[key]
	if !exists || syncStatus == nil {
		return nil, nil
	}
	statusCopy := *syncStatus
	return &statusCopy, nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	key string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var working status.SyncStatus
	if current, exists := f.cachedStatuses[key]; exists && current != nil {
		working = *current
	}

	if !testAndUpdateFn(&working) {
		return false, nil
	}
	if err := f.statusPersistence.SaveStatus(ctx, key, &working); err != nil {
		return false, err
	}
	f.cachedStatuses[key] = &working
	return true, nil
}

func (f *fileStateService) UpdateSyncStatus(ctx context.Context, key string, syncStatus *status.SyncStatus) error {
	if syncStatus == nil {
		return fmt.Errorf("sync status for config %s cannot be nil", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusPersistence.SaveStatus(ctx, key, syncStatus); err != nil {
		return err
	}
	statusCopy := *syncStatus
	f.cachedStatuses[key] = &statusCopy
	return nil
}

// initialPhase is the phase a config starts in when nothing better is known
func initialPhase(cfg *syncconfig.SyncConfig, platform string) (status.SyncPhase, string) {
	switch {
	case cfg.Options(platform) == nil:
		return status.SyncPhaseInactive, fmt.Sprintf("No options for platform %s", platform)
	case cfg.Disabled:
		return status.SyncPhaseInactive, "Disabled"
	default:
		return status.SyncPhaseActive, "Waiting for a watched process to exit"
	}
}

func (f *fileStateService) loadOrInitializeConfigStatus(ctx context.Context, cfg *syncconfig.SyncConfig, platform string) {
	key := cfg.Key
	phase, message := initialPhase(cfg, platform)

	syncStatus, err := f.statusPersistence.LoadStatus(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load sync status, initializing with defaults", "config", key, "error", err)
		syncStatus = nil
	}
	if syncStatus == nil {
		syncStatus = &status.SyncStatus{}
	}

	save := false
	switch {
	case syncStatus.Phase == "":
		slog.InfoContext(ctx, "No previous sync status found, initializing with defaults", "config", key)
		syncStatus.Phase = phase
		syncStatus.Message = message
		save = true
	case syncStatus.Phase == status.SyncPhaseBackingUp || syncStatus.Phase == status.SyncPhaseRestoring:
		// A run was in progress when the agent stopped
		slog.WarnContext(ctx, "Previous run was interrupted, resetting to Failed", "config", key, "phase", syncStatus.Phase)
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = fmt.Sprintf("Previous %s was interrupted", syncStatus.LastOperation)
		save = true
	case phase == status.SyncPhaseInactive && syncStatus.Phase != status.SyncPhaseInactive:
		syncStatus.Phase = phase
		syncStatus.Message = message
		save = true
	case phase == status.SyncPhaseActive &&
		(syncStatus.Phase == status.SyncPhaseInactive || syncStatus.Phase == status.SyncPhaseSuspended):
		syncStatus.Phase = phase
		syncStatus.Message = message
		syncStatus.PendingInitTask = ""
		save = true
	}

	if save {
		if err := f.statusPersistence.SaveStatus(ctx, key, syncStatus); err != nil {
			slog.WarnContext(ctx, "Failed to persist initial sync status", "config", key, "error", err)
		}
	}

	if syncStatus.LastAttempt != nil {
		slog.InfoContext(ctx, "Loaded sync status",
			"config", key,
			"phase", syncStatus.Phase,
			"last_operation", syncStatus.LastOperation,
			"last_attempt", syncStatus.LastAttempt.Format(time.RFC3339))
	} else {
		slog.InfoContext(ctx, "Sync status has no previous run", "config", key, "phase", syncStatus.Phase)
	}

	f.mu.Lock()
	f.cachedStatuses[key] = syncStatus
	f.mu.Unlock()
}
