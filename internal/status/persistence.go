// Package status provides sync status tracking and persistence for sync
// configs, and the local last-sync marker store.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status to persistent storage for a specific config
	SaveStatus(ctx context.Context, key string, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage for a specific config
	// Returns an empty SyncStatus if the file doesn't exist (first run)
	LoadStatus(ctx context.Context, key string) (*SyncStatus, error)

	// LoadAllStatus loads sync status for all configs
	LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence
// basePath is the base directory where per-config status files will be stored
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus saves the sync status to a JSON file in a config-specific directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, key string, status *SyncStatus) error {
	configDir := filepath.Join(f.basePath, key)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for config '%s': %w", key, err)
	}

	filePath := filepath.Join(configDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for config '%s': %w", key, err)
	}

	// Write to temporary file first for atomic operation
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for config '%s': %w", key, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for config '%s': %w", key, err)
	}

	return nil
}

// LoadStatus loads the sync status from a JSON file for a specific config
// Returns an empty SyncStatus if the file doesn't exist
func (f *fileStatusPersistence) LoadStatus(_ context.Context, key string) (*SyncStatus, error) {
	filePath := filepath.Join(f.basePath, key, StatusFileName)

	// #nosec G304 -- filePath is constructed from trusted internal sources (basePath + config key)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for config '%s': %w", key, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for config '%s': %w", key, err)
	}

	return &status, nil
}

// LoadAllStatus loads sync status for all configs
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error) {
	result := make(map[string]*SyncStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		key := entry.Name()
		status, err := f.LoadStatus(ctx, key)
		if err != nil {
			// Partial results are fine, one bad record must not hide the rest
			slog.Warn("Failed to load sync status", "config", key, "error", err)
			continue
		}

		result[key] = status
	}

	return result, nil
}
