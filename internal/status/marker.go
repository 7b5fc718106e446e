package status

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_marker_store.go -package=mocks -source=marker.go MarkerStore

// NoMarker is the value of a marker that was never written
const NoMarker int64 = -1

// MarkerStore persists the local last-sync marker of each config
type MarkerStore interface {
	// GetMarker returns the local marker for key, or NoMarker if none was written
	GetMarker(ctx context.Context, key string) (int64, error)

	// SetMarker overwrites the local marker for key
	SetMarker(ctx context.Context, key string, value int64) error
}

// fileMarkerStore keeps one plain-text integer file per config key
type fileMarkerStore struct {
	basePath string
}

// NewFileMarkerStore creates a MarkerStore writing below basePath
func NewFileMarkerStore(basePath string) MarkerStore {
	return &fileMarkerStore{basePath: basePath}
}

func (f *fileMarkerStore) GetMarker(_ context.Context, key string) (int64, error) {
	// #nosec G304 -- path is constructed from basePath and a config key
	data, err := os.ReadFile(filepath.Join(f.basePath, key))
	if err != nil {
		if os.IsNotExist(err) {
			return NoMarker, nil
		}
		return NoMarker, fmt.Errorf("failed to read marker for config '%s': %w", key, err)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return NoMarker, fmt.Errorf("failed to parse marker for config '%s': %w", key, err)
	}
	return value, nil
}

func (f *fileMarkerStore) SetMarker(_ context.Context, key string, value int64) error {
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}

	filePath := filepath.Join(f.basePath, key)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, []byte(strconv.FormatInt(value, 10)), 0600); err != nil {
		return fmt.Errorf("failed to write temporary marker for config '%s': %w", key, err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename marker for config '%s': %w", key, err)
	}
	return nil
}
