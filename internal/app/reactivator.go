package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/kurum-rebirth/kurum-sync/internal/settings"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/sync/state"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

const settingsFileExt = ".yaml"

// Reactivator re-enables suspended configs once the user has answered every
// required init task. Its Hook runs on the coordinator goroutine, which owns
// the config set.
type Reactivator struct {
	configs   *syncconfig.Set
	settings  settings.Store
	statusSvc state.ConfigStateService
	pending   *PendingInits

	watcher *fsnotify.Watcher
	// dirty is set when a settings document changed since the last check
	dirty atomic.Bool
}

// NewReactivator creates a reactivator for the configs recorded in pending
func NewReactivator(
	configs *syncconfig.Set,
	store settings.Store,
	statusSvc state.ConfigStateService,
	pending *PendingInits,
) *Reactivator {
	r := &Reactivator{
		configs:   configs,
		settings:  store,
		statusSvc: statusSvc,
		pending:   pending,
	}
	r.dirty.Store(true)
	return r
}

// Watch starts watching the settings directory until ctx is cancelled.
// Without a running watcher every Hook call re-checks the pending configs.
func (r *Reactivator) Watch(ctx context.Context) error {
	dir := r.settings.Dir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	r.watcher = watcher

	go r.run(ctx, watcher)
	slog.Info("Watching user settings for changes", "dir", dir)
	return nil
}

func (r *Reactivator) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != settingsFileExt {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				slog.Debug("User settings changed", "file", event.Name)
				r.dirty.Store(true)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Settings watcher error", "error", err)
			r.dirty.Store(true)
		}
	}
}

// Hook reactivates every pending config whose required init tasks now all
// have values. It is meant to run as a coordinator pre-tick hook.
func (r *Reactivator) Hook(ctx context.Context) {
	if r.watcher != nil && !r.dirty.Swap(false) {
		return
	}

	for _, key := range r.pending.Keys() {
		cfg, ok := r.configs.Get(key)
		if !ok {
			r.pending.Resolve(key)
			continue
		}

		answered, err := r.initTasksAnswered(cfg)
		if err != nil {
			slog.Warn("Failed to read user settings", "config", key, "error", err)
			r.dirty.Store(true)
			continue
		}
		if !answered {
			continue
		}

		cfg.Disabled = false
		r.pending.Resolve(key)
		slog.Info("Init tasks answered, reactivating config", "config", key)

		_, err = r.statusSvc.UpdateStatusAtomically(ctx, key, func(s *status.SyncStatus) bool {
			s.Phase = status.SyncPhaseActive
			s.Message = "Init tasks answered"
			s.PendingInitTask = ""
			return true
		})
		if err != nil {
			slog.Warn("Failed to update sync status", "config", key, "error", err)
		}
	}
}

func (r *Reactivator) initTasksAnswered(cfg *syncconfig.SyncConfig) (bool, error) {
	opts := cfg.Options(r.configs.Platform())
	if opts == nil {
		return false, nil
	}
	for _, task := range opts.InitTasks {
		if !task.IsRequired() {
			continue
		}
		value, ok, err := r.settings.Get(cfg.Key, task.Name)
		if err != nil {
			return false, err
		}
		if !ok || !settings.IsSet(value) {
			return false, nil
		}
	}
	return true, nil
}
