package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfigKey = "stardew"

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	// Create temporary directory for test
	tmpDir := t.TempDir()

	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	key := testConfigKey
	// Create a test status
	now := time.Now()
	testStatus := &SyncStatus{
		Phase:          SyncPhaseComplete,
		Message:        "Test sync completed",
		LastAttempt:    &now,
		AttemptCount:   1,
		LastBackupTime: &now,
		LastRunID:      "abc123",
		Marker:         5,
	}

	// Save the status
	ctx := context.Background()
	err := persistence.SaveStatus(ctx, key, testStatus)
	require.NoError(t, err)

	// Verify file was created
	expectedPath := filepath.Join(tmpDir, key, StatusFileName)
	_, err = os.Stat(expectedPath)
	require.NoError(t, err)

	// Load the status back
	loaded, err := persistence.LoadStatus(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, testStatus.Phase, loaded.Phase)
	require.Equal(t, testStatus.Message, loaded.Message)
	require.Equal(t, testStatus.AttemptCount, loaded.AttemptCount)
	require.Equal(t, testStatus.LastRunID, loaded.LastRunID)
	require.Equal(t, testStatus.Marker, loaded.Marker)
}

func TestFileStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	// Create temporary directory for test
	tmpDir := t.TempDir()

	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	key := testConfigKey

	// Load non-existent status should return empty status
	ctx := context.Background()
	loaded, err := persistence.LoadStatus(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, SyncPhase(""), loaded.Phase)
	require.Equal(t, "", loaded.Message)
}

func TestFileStatusPersistence_UpdateStatus(t *testing.T) {
	t.Parallel()

	// Create temporary directory for test
	tmpDir := t.TempDir()

	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	key := testConfigKey
	ctx := context.Background()

	// Save initial status
	now1 := time.Now()
	initialStatus := &SyncStatus{
		Phase:        SyncPhaseBackingUp,
		Message:      "Backing up...",
		LastAttempt:  &now1,
		AttemptCount: 1,
	}
	err := persistence.SaveStatus(ctx, key, initialStatus)
	require.NoError(t, err)

	// Update status
	now2 := time.Now()
	updatedStatus := &SyncStatus{
		Phase:          SyncPhaseComplete,
		Message:        "Sync completed",
		LastAttempt:    &now2,
		AttemptCount:   0,
		LastBackupTime: &now2,
		LastRunID:      "xyz789",
		Marker:         10,
	}
	err = persistence.SaveStatus(ctx, key, updatedStatus)
	require.NoError(t, err)

	// Load and verify it was updated
	loaded, err := persistence.LoadStatus(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, SyncPhaseComplete, loaded.Phase)
	require.Equal(t, "Sync completed", loaded.Message)
	require.Equal(t, 0, loaded.AttemptCount)
	require.Equal(t, "xyz789", loaded.LastRunID)
	require.Equal(t, int64(10), loaded.Marker)
}

func TestFileStatusPersistence_AtomicWrite(t *testing.T) {
	t.Parallel()

	// Create temporary directory for test
	tmpDir := t.TempDir()

	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	key := testConfigKey
	ctx := context.Background()

	// Save status
	now := time.Now()
	testStatus := &SyncStatus{
		Phase:       SyncPhaseComplete,
		LastAttempt: &now,
	}
	err := persistence.SaveStatus(ctx, key, testStatus)
	require.NoError(t, err)

	// Verify temporary file was cleaned up
	statusPath := filepath.Join(tmpDir, key, StatusFileName)
	tempPath := statusPath + ".tmp"
	_, err = os.Stat(tempPath)
	require.True(t, os.IsNotExist(err), "Temporary file should not exist after save")
}

func TestFileStatusPersistence_LoadAllStatus(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)

	ctx := context.Background()

	// Create multiple test statuses
	now := time.Now()
	status1 := &SyncStatus{
		Phase:        SyncPhaseComplete,
		Message:      "Config 1 backup completed",
		LastAttempt:  &now,
		AttemptCount: 1,
		LastRunID:    "run1",
		Marker:       5,
	}
	status2 := &SyncStatus{
		Phase:        SyncPhaseRestoring,
		Message:      "Config 2 restoring",
		LastAttempt:  &now,
		AttemptCount: 2,
		LastRunID:    "run2",
		Marker:       10,
	}
	status3 := &SyncStatus{
		Phase:        SyncPhaseFailed,
		Message:      "Config 3 failed",
		LastAttempt:  &now,
		AttemptCount: 3,
	}

	// Save statuses for multiple configs
	err := persistence.SaveStatus(ctx, "config1", status1)
	require.NoError(t, err)
	err = persistence.SaveStatus(ctx, "config2", status2)
	require.NoError(t, err)
	err = persistence.SaveStatus(ctx, "config3", status3)
	require.NoError(t, err)

	// Load all statuses
	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result, 3)

	// Verify all statuses were retrieved
	require.Contains(t, result, "config1")
	require.Contains(t, result, "config2")
	require.Contains(t, result, "config3")

	// Verify content
	require.Equal(t, SyncPhaseComplete, result["config1"].Phase)
	require.Equal(t, "Config 1 backup completed", result["config1"].Message)
	require.Equal(t, int64(5), result["config1"].Marker)

	require.Equal(t, SyncPhaseRestoring, result["config2"].Phase)
	require.Equal(t, "Config 2 restoring", result["config2"].Message)
	require.Equal(t, int64(10), result["config2"].Marker)

	require.Equal(t, SyncPhaseFailed, result["config3"].Phase)
	require.Equal(t, "Config 3 failed", result["config3"].Message)
	require.Equal(t, 3, result["config3"].AttemptCount)
}

func TestFileStatusPersistence_LoadAllStatus_EmptyDirectory(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)

	ctx := context.Background()

	// Load all from empty directory
	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Empty(t, result)
}

func TestFileStatusPersistence_LoadAllStatus_NonExistentDirectory(t *testing.T) {
	t.Parallel()

	// Use a non-existent base directory
	tmpDir := filepath.Join(t.TempDir(), "nonexistent")
	persistence := NewFileStatusPersistence(tmpDir)

	ctx := context.Background()

	// Load all should return empty result when directory doesn't exist
	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Empty(t, result)
}

func TestFileStatusPersistence_LoadAllStatus_PartialFailure(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)

	ctx := context.Background()

	// Create one valid status
	now := time.Now()
	status1 := &SyncStatus{
		Phase:       SyncPhaseComplete,
		LastAttempt: &now,
		Marker:      5,
	}
	err := persistence.SaveStatus(ctx, "config1", status1)
	require.NoError(t, err)

	// Create a config directory with invalid JSON file
	invalidDir := filepath.Join(tmpDir, "invalid-config")
	err = os.MkdirAll(invalidDir, 0750)
	require.NoError(t, err)
	invalidFile := filepath.Join(invalidDir, StatusFileName)
	err = os.WriteFile(invalidFile, []byte("{invalid json}"), 0644)
	require.NoError(t, err)

	// LoadAllStatus should return the valid status and skip the invalid one
	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result, 1)
	require.Contains(t, result, "config1")
	require.NotContains(t, result, "invalid-config")
}
