package app

import (
	"github.com/kurum-rebirth/kurum-sync/internal/settings"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
	pkgsync "github.com/kurum-rebirth/kurum-sync/internal/sync"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/coordinator"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Configs is the loaded config set, owned by the coordinator goroutine
	Configs *syncconfig.Set

	// Storage is the remote backend archives and markers go to
	Storage storage.Storage

	// Settings answers init tasks and path variables
	Settings settings.Store

	// StateService tracks the sync status of every config
	StateService state.ConfigStateService

	// Orchestrator runs backups and restores
	Orchestrator pkgsync.Orchestrator

	// SyncCoordinator drives the orchestrator on the poll interval
	SyncCoordinator coordinator.Coordinator

	// Reactivator re-enables configs once their init tasks are answered
	Reactivator *Reactivator
}
