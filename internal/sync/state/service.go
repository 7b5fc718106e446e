// Package state tracks the sync status of every config the agent manages.
package state

import (
	"context"

	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

// ConfigStateService provides methods for inspecting and updating the sync
// state of configs.
//
//go:generate mockgen -destination=mocks/mock_config_state_service.go -package=mocks -source=service.go ConfigStateService
type ConfigStateService interface {
	// Initialize populates the state store with the set of configs.
	// It is intended that this is called at application startup, and it
	// will overwrite any previous state.
	Initialize(ctx context.Context, configs []*syncconfig.SyncConfig, platform string) error
	// ListSyncStatuses lists all available sync statuses.
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of the config with the given key,
	// or nil if the key is unknown.
	GetSyncStatus(ctx context.Context, key string) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of the config with syncStatus.
	UpdateSyncStatus(ctx context.Context, key string, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically fetches the current status of key (an empty
	// status if none is known), applies testAndUpdateFn and persists the
	// result if the function reports a modification, all as a single atomic
	// action. The boolean returned by testAndUpdateFn is returned.
	UpdateStatusAtomically(
		ctx context.Context,
		key string,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
}
