package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/kurum-rebirth/kurum-sync/internal/archive"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

func TestBackup_UploadsArchivesAndRecordsStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	saveDir := t.TempDir()
	writeFiles(t, saveDir, map[string]string{"slot1.sav": "one"})
	f.answerInit(t, cfg.Key, saveDir)
	remote := newFakeRemote(f.storage)

	gomock.InOrder(
		f.handler.EXPECT().OnBackupStart(cfg),
		f.handler.EXPECT().OnBackupEnd(cfg),
	)

	orch := f.orchestrator(t, cfg)
	require.NoError(t, orch.Backup(context.Background(), cfg))

	assert.Equal(t, []string{"backups/game/saves.zip"}, remote.uploads)
	assert.Equal(t, remote.markers[cfg.Key], f.localMarker(t, cfg.Key))

	s := f.syncStatus(t, cfg.Key)
	assert.Equal(t, status.SyncPhaseComplete, s.Phase)
	assert.Equal(t, "Backup completed", s.Message)
	assert.Equal(t, status.OperationBackup, s.LastOperation)
	assert.Equal(t, testRunID, s.LastRunID)
	assert.Equal(t, remote.markers[cfg.Key], s.Marker)
	assert.NotNil(t, s.LastBackupTime)
	assert.NotNil(t, s.LastAttempt)
	assert.Zero(t, s.AttemptCount)
}

func TestBackup_FailFast(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	opts := cfg.Platform[testPlatform]
	opts.BackupTasks = append(opts.BackupTasks, syncconfig.BackupTask{
		Name:     "config",
		BasePath: opts.BackupTasks[0].BasePath,
		Pattern:  "*.ini",
	})
	saveDir := t.TempDir()
	writeFiles(t, saveDir, map[string]string{"slot1.sav": "one", "game.ini": "x"})
	f.answerInit(t, cfg.Key, saveDir)

	uploadErr := errors.New("access denied")
	f.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), "backups/game/saves.zip").Return(uploadErr)
	// No second upload and no marker writes
	f.handler.EXPECT().OnBackupStart(cfg)

	orch := f.orchestrator(t, cfg)
	err := orch.Backup(context.Background(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, uploadErr)
	assert.Contains(t, err.Error(), "backup task saves for game")
	assert.Equal(t, storage.NoMarker, f.localMarker(t, cfg.Key))

	s := f.syncStatus(t, cfg.Key)
	assert.Equal(t, status.SyncPhaseFailed, s.Phase)
	assert.Equal(t, 1, s.AttemptCount)
	assert.Contains(t, s.Message, "access denied")

	_, statErr := os.Stat(filepath.Join(f.tempDir, backupTempDir, cfg.Key))
	assert.True(t, os.IsNotExist(statErr), "temporary archive directory must be removed on failure")
}

func TestBackup_MarkerFailures(t *testing.T) {
	t.Parallel()

	markerErr := errors.New("throttled")

	tests := []struct {
		name    string
		setup   func(m *fixture)
		wantErr string
	}{
		{
			name: "write remote marker fails",
			setup: func(f *fixture) {
				f.storage.EXPECT().SetRemoteMarker(gomock.Any(), "game").Return(markerErr)
			},
			wantErr: "write remote marker for game",
		},
		{
			name: "re-read remote marker fails",
			setup: func(f *fixture) {
				f.storage.EXPECT().SetRemoteMarker(gomock.Any(), "game").Return(nil)
				f.storage.EXPECT().GetRemoteMarker(gomock.Any(), "game").Return(int64(0), markerErr)
			},
			wantErr: "read remote marker for game",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			cfg := newGameConfig("game")
			saveDir := t.TempDir()
			writeFiles(t, saveDir, map[string]string{"slot1.sav": "one"})
			f.answerInit(t, cfg.Key, saveDir)

			f.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			tt.setup(f)
			f.handler.EXPECT().OnBackupStart(cfg)

			orch := f.orchestrator(t, cfg)
			err := orch.Backup(context.Background(), cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, markerErr)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, storage.NoMarker, f.localMarker(t, cfg.Key))
		})
	}
}

func TestBackup_MissingBasePathFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	f.answerInit(t, cfg.Key, filepath.Join(t.TempDir(), "does-not-exist"))
	f.handler.EXPECT().OnBackupStart(cfg)

	orch := f.orchestrator(t, cfg)
	err := orch.Backup(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup task saves for game")
}

func TestBackup_NoOptionsForPlatform(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	cfg.Platform = map[string]*syncconfig.PlatformSyncOptions{"darwin": cfg.Platform[testPlatform]}

	orch := f.orchestrator(t, cfg)
	err := orch.Backup(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no options for platform linux")

	err = orch.Restore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no options for platform linux")
}

func TestRestore_OverwritesAndSetsMarker(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	saveDir := t.TempDir()
	writeFiles(t, saveDir, map[string]string{"slot1.sav": "stale", "keep.txt": "untouched"})
	f.answerInit(t, cfg.Key, saveDir)

	remote := newFakeRemote(f.storage)
	remote.markers[cfg.Key] = 200
	remote.objects["backups/game/saves.zip"] = packArchive(t, map[string]string{
		"slot1.sav":        "fresh",
		"profiles/a/2.sav": "two",
	})

	gomock.InOrder(
		f.handler.EXPECT().OnRestoreStart(cfg),
		f.handler.EXPECT().OnRestoreEnd(cfg),
	)

	orch := f.orchestrator(t, cfg)
	require.NoError(t, orch.Restore(context.Background(), cfg))

	for name, want := range map[string]string{
		"slot1.sav":        "fresh",
		"profiles/a/2.sav": "two",
		"keep.txt":         "untouched",
	} {
		// #nosec G304 -- test fixture
		data, err := os.ReadFile(filepath.Join(saveDir, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), name)
	}

	assert.Equal(t, int64(200), f.localMarker(t, cfg.Key))
	s := f.syncStatus(t, cfg.Key)
	assert.Equal(t, status.SyncPhaseComplete, s.Phase)
	assert.Equal(t, status.OperationRestore, s.LastOperation)
	assert.NotNil(t, s.LastRestoreTime)

	_, err := os.Stat(filepath.Join(f.tempDir, restoreTempDir, cfg.Key))
	assert.True(t, os.IsNotExist(err), "temporary archive directory must be removed")
}

func TestRestore_RejectsUnsafeArchive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cfg := newGameConfig("game")
	saveDir := filepath.Join(t.TempDir(), "saves")
	f.answerInit(t, cfg.Key, saveDir)

	remote := newFakeRemote(f.storage)
	remote.markers[cfg.Key] = 200
	remote.objects["backups/game/saves.zip"] = zipWithEntry(t, "../escaped.txt")

	f.handler.EXPECT().OnRestoreStart(cfg)

	orch := f.orchestrator(t, cfg)
	err := orch.Restore(context.Background(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrUnsafePath)
	assert.Equal(t, storage.NoMarker, f.localMarker(t, cfg.Key))
	_, statErr := os.Stat(filepath.Join(filepath.Dir(saveDir), "escaped.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBackup_RecordsSpanAndDuration(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewSyncMetrics(mp)
	require.NoError(t, err)

	f := newFixture(t)
	cfg := newGameConfig("game")
	saveDir := t.TempDir()
	writeFiles(t, saveDir, map[string]string{"slot1.sav": "one"})
	f.answerInit(t, cfg.Key, saveDir)
	newFakeRemote(f.storage)
	f.handler.EXPECT().OnBackupStart(cfg)
	f.handler.EXPECT().OnBackupEnd(cfg)

	orch := f.orchestrator(t, cfg)
	orch.tracer = tp.Tracer("test")
	orch.syncMetrics = metrics

	require.NoError(t, orch.Backup(context.Background(), cfg))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.Backup", spans[0].Name)
	attrs := make(map[string]any)
	for _, attr := range spans[0].Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.Equal(t, "game", attrs["config.key"])
	assert.Equal(t, testRunID, attrs["sync.run_id"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var found bool
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name == telemetry.SyncMetricsMeterName {
			found = len(scope.Metrics) > 0
		}
	}
	assert.True(t, found, "expected a recorded operation duration")
}

func TestRestore_FailureMarksSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t)
	cfg := newGameConfig("game")
	f.answerInit(t, cfg.Key, filepath.Join(t.TempDir(), "saves"))

	remote := newFakeRemote(f.storage)
	remote.markers[cfg.Key] = 200
	remote.objects["backups/game/saves.zip"] = zipWithEntry(t, "../escaped.txt")
	f.handler.EXPECT().OnRestoreStart(cfg)

	orch := f.orchestrator(t, cfg)
	orch.tracer = tp.Tracer("test")

	require.Error(t, orch.Restore(context.Background(), cfg))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.Restore", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	// Object paths stay out of the status description
	assert.Equal(t, "operation failed", spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}
