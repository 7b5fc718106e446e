// Package storage is the remote object store the sync agent backs up to.
//
// Archives live at backups/{key}/{task}.zip and the remote generation marker
// of a config is the modification time, in Unix seconds, of the empty object
// backups/{key}/last_sync. Concrete backends implement ObjectStore and
// register a constructor for their storage type; New wraps the configured
// backend into a Storage that adds marker handling and retries.
package storage

import (
	"context"
	"errors"
	"path"
	"time"
)

const (
	// NoMarker is the marker value of a config that has never been backed up
	NoMarker int64 = -1

	backupsPrefix  = "backups"
	markerObject   = "last_sync"
	archiveSuffix  = ".zip"
	defaultTimeout = 30 * time.Second
)

// ErrNotFound is returned by an ObjectStore when an object does not exist
var ErrNotFound = errors.New("object not found")

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=storage.go Storage,ObjectStore

// Storage is the port the orchestrator uses to exchange archives and markers
type Storage interface {
	// Upload stores the local file at remotePath, replacing any existing object
	Upload(ctx context.Context, localPath, remotePath string) error

	// Download fetches remotePath into localPath, creating parent directories
	Download(ctx context.Context, remotePath, localPath string) error

	// GetRemoteMarker returns the remote marker of key, or NoMarker if the
	// config was never backed up
	GetRemoteMarker(ctx context.Context, key string) (int64, error)

	// SetRemoteMarker advances the remote marker of key to the current time
	SetRemoteMarker(ctx context.Context, key string) error

	// IsAuthorized reports whether the backend can currently be used
	IsAuthorized(ctx context.Context) bool
}

// ObjectStore is the minimal contract a backend implements
type ObjectStore interface {
	// Put uploads the file at localPath to remotePath
	Put(ctx context.Context, localPath, remotePath string) error

	// Get downloads remotePath to localPath. Returns ErrNotFound if absent.
	Get(ctx context.Context, remotePath, localPath string) error

	// PutEmpty writes a zero-length object at remotePath
	PutEmpty(ctx context.Context, remotePath string) error

	// ModTime returns the modification time of remotePath. Returns
	// ErrNotFound if absent.
	ModTime(ctx context.Context, remotePath string) (time.Time, error)

	// Ping checks that the backend is reachable with the configured credentials
	Ping(ctx context.Context) error
}

// ArchivePath returns the remote path of the archive of task for config key
func ArchivePath(key, task string) string {
	return path.Join(backupsPrefix, key, task+archiveSuffix)
}

// MarkerPath returns the remote path of the marker object for config key
func MarkerPath(key string) string {
	return path.Join(backupsPrefix, key, markerObject)
}
