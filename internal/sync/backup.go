package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kurum-rebirth/kurum-sync/internal/archive"
	"github.com/kurum-rebirth/kurum-sync/internal/filtering"
	"github.com/kurum-rebirth/kurum-sync/internal/otel"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

const (
	backupTempDir  = "backup"
	restoreTempDir = "restore"
	archiveExt     = ".zip"
)

// Backup packs and uploads every backup task of cfg in order
func (o *defaultOrchestrator) Backup(ctx context.Context, cfg *syncconfig.SyncConfig) (err error) {
	opts, err := o.platformOptions(cfg)
	if err != nil {
		return err
	}

	runID := o.newRunID()
	ctx, span := otel.StartSyncSpan(ctx, o.tracer, otel.SyncRun{
		Operation:  "Backup",
		ConfigKey:  cfg.Key,
		ConfigName: cfg.Name,
		RunID:      runID,
		Tasks:      len(opts.BackupTasks),
	})
	defer span.End()

	start := o.beginRun(ctx, cfg.Key, status.SyncPhaseBackingUp, status.OperationBackup, runID)
	marker := storage.NoMarker
	defer func() {
		otel.RecordError(span, err)
		o.finishRun(ctx, cfg.Key, status.OperationBackup, start, marker, err)
		if err != nil {
			slog.Error("Backup failed", "config", cfg.Key, "run_id", runID, "error", err)
		}
	}()

	slog.Info("Starting backup", "config", cfg.Key, "run_id", runID, "tasks", len(opts.BackupTasks))
	o.handler.OnBackupStart(cfg)

	for i := range opts.BackupTasks {
		task := &opts.BackupTasks[i]
		if err := o.runBackupTask(ctx, cfg, task); err != nil {
			return fmt.Errorf("backup task %s for %s: %w", task.Name, cfg.Key, err)
		}
	}

	if err := o.storage.SetRemoteMarker(ctx, cfg.Key); err != nil {
		return fmt.Errorf("write remote marker for %s: %w", cfg.Key, err)
	}
	marker, err = o.storage.GetRemoteMarker(ctx, cfg.Key)
	if err != nil {
		return fmt.Errorf("read remote marker for %s: %w", cfg.Key, err)
	}
	if err := o.markers.SetMarker(ctx, cfg.Key, marker); err != nil {
		return fmt.Errorf("write local marker for %s: %w", cfg.Key, err)
	}

	slog.Info("Backup completed", "config", cfg.Key, "run_id", runID, "marker", marker)
	o.handler.OnBackupEnd(cfg)
	return nil
}

// runBackupTask archives the files selected by task and uploads the archive
func (o *defaultOrchestrator) runBackupTask(
	ctx context.Context, cfg *syncconfig.SyncConfig, task *syncconfig.BackupTask,
) error {
	base, err := o.expander.Expand(cfg, task.BasePath)
	if err != nil {
		return fmt.Errorf("expand base path: %w", err)
	}

	filter, err := filtering.NewPathFilter(task.Pattern, task.Excludes)
	if err != nil {
		return err
	}
	files, err := filter.Select(base)
	if err != nil {
		return err
	}

	tempPath := o.tempArchivePath(backupTempDir, cfg.Key, task.Name)
	defer removeTemp(tempPath)

	if err := archive.Pack(tempPath, base, files); err != nil {
		return err
	}

	remotePath := storage.ArchivePath(cfg.Key, task.Name)
	if err := o.storage.Upload(ctx, tempPath, remotePath); err != nil {
		return fmt.Errorf("upload %s: %w", remotePath, err)
	}

	slog.Info("Uploaded backup archive",
		"config", cfg.Key,
		"task", task.Name,
		"files", len(files),
		"remote_path", remotePath)
	return nil
}

// Restore downloads and extracts every restore task of cfg in order
func (o *defaultOrchestrator) Restore(ctx context.Context, cfg *syncconfig.SyncConfig) (err error) {
	opts, err := o.platformOptions(cfg)
	if err != nil {
		return err
	}

	runID := o.newRunID()
	ctx, span := otel.StartSyncSpan(ctx, o.tracer, otel.SyncRun{
		Operation:  "Restore",
		ConfigKey:  cfg.Key,
		ConfigName: cfg.Name,
		RunID:      runID,
		Tasks:      len(opts.RestoreTasks),
	})
	defer span.End()

	start := o.beginRun(ctx, cfg.Key, status.SyncPhaseRestoring, status.OperationRestore, runID)
	marker := storage.NoMarker
	defer func() {
		otel.RecordError(span, err)
		o.finishRun(ctx, cfg.Key, status.OperationRestore, start, marker, err)
		if err != nil {
			slog.Error("Restore failed", "config", cfg.Key, "run_id", runID, "error", err)
		}
	}()

	slog.Info("Starting restore", "config", cfg.Key, "run_id", runID, "tasks", len(opts.RestoreTasks))
	o.handler.OnRestoreStart(cfg)

	for i := range opts.RestoreTasks {
		task := &opts.RestoreTasks[i]
		if err := o.runRestoreTask(ctx, cfg, task); err != nil {
			return fmt.Errorf("restore task %s for %s: %w", task.Name, cfg.Key, err)
		}
	}

	marker, err = o.storage.GetRemoteMarker(ctx, cfg.Key)
	if err != nil {
		return fmt.Errorf("read remote marker for %s: %w", cfg.Key, err)
	}
	if err := o.markers.SetMarker(ctx, cfg.Key, marker); err != nil {
		return fmt.Errorf("write local marker for %s: %w", cfg.Key, err)
	}

	slog.Info("Restore completed", "config", cfg.Key, "run_id", runID, "marker", marker)
	o.handler.OnRestoreEnd(cfg)
	return nil
}

// runRestoreTask downloads the archive of task and extracts it into its destination
func (o *defaultOrchestrator) runRestoreTask(
	ctx context.Context, cfg *syncconfig.SyncConfig, task *syncconfig.RestoreTask,
) error {
	tempPath := o.tempArchivePath(restoreTempDir, cfg.Key, task.Name)
	if err := os.MkdirAll(filepath.Dir(tempPath), 0750); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer removeTemp(tempPath)

	remotePath := storage.ArchivePath(cfg.Key, task.Name)
	if err := o.storage.Download(ctx, remotePath, tempPath); err != nil {
		return fmt.Errorf("download %s: %w", remotePath, err)
	}

	dest, err := o.expander.Expand(cfg, task.Path)
	if err != nil {
		return fmt.Errorf("expand destination: %w", err)
	}
	if err := archive.Extract(tempPath, dest); err != nil {
		return err
	}

	slog.Info("Extracted restore archive",
		"config", cfg.Key,
		"task", task.Name,
		"destination", dest)
	return nil
}

func (o *defaultOrchestrator) platformOptions(cfg *syncconfig.SyncConfig) (*syncconfig.PlatformSyncOptions, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sync config cannot be nil")
	}
	opts := cfg.Options(o.configs.Platform())
	if opts == nil {
		return nil, fmt.Errorf("config %s has no options for platform %s", cfg.Key, o.configs.Platform())
	}
	return opts, nil
}

// tempArchivePath returns {temp}/{kind}/{key}/{task}.zip
func (o *defaultOrchestrator) tempArchivePath(kind, key, task string) string {
	return filepath.Join(o.tempDir, kind, key, task+archiveExt)
}

// removeTemp deletes a temporary archive and its directory when it is empty
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove temporary archive", "path", path, "error", err)
	}
	_ = os.Remove(filepath.Dir(path))
}
