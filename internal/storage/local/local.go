// Package local stores sync archives in a directory, typically a mounted
// network share or a folder synchronized by another tool.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
)

func init() {
	storage.Register(config.StorageTypeLocal, New)
}

// Store implements storage.ObjectStore on a billy filesystem
type Store struct {
	fs billy.Filesystem
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates a store rooted at cfg.Local.Root
func New(_ context.Context, cfg *config.StorageConfig) (storage.ObjectStore, error) {
	if cfg == nil || cfg.Local == nil || cfg.Local.Root == "" {
		return nil, fmt.Errorf("local.root is required for storage type local")
	}
	if err := os.MkdirAll(cfg.Local.Root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", cfg.Local.Root, err)
	}
	return NewWithFilesystem(osfs.New(cfg.Local.Root)), nil
}

// NewWithFilesystem creates a store on fs
func NewWithFilesystem(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// Put copies the file at localPath to remotePath. The object is written to a
// temporary name first so readers never observe a partial archive.
func (s *Store) Put(_ context.Context, localPath, remotePath string) error {
	// #nosec G304 -- localPath is an archive in the agent's temp dir
	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = in.Close() }()

	if err := s.fs.MkdirAll(path.Dir(remotePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", remotePath, err)
	}

	tmpPath := remotePath + ".tmp"
	out, err := s.fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := s.fs.Rename(tmpPath, remotePath); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}

// Get copies remotePath to localPath
func (s *Store) Get(_ context.Context, remotePath, localPath string) error {
	in, err := s.fs.Open(remotePath)
	if err != nil {
		return translateError(err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(localPath), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}
	// #nosec G304 -- localPath is in the agent's temp dir
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return out.Close()
}

// PutEmpty truncates or creates remotePath and bumps its modification time
func (s *Store) PutEmpty(_ context.Context, remotePath string) error {
	if err := util.WriteFile(s.fs, remotePath, nil, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", remotePath, err)
	}
	if ch, ok := s.fs.(billy.Change); ok {
		now := time.Now()
		if err := ch.Chtimes(remotePath, now, now); err != nil {
			return fmt.Errorf("failed to touch %s: %w", remotePath, err)
		}
	}
	return nil
}

// ModTime returns the modification time of remotePath
func (s *Store) ModTime(_ context.Context, remotePath string) (time.Time, error) {
	info, err := s.fs.Stat(remotePath)
	if err != nil {
		return time.Time{}, translateError(err)
	}
	return info.ModTime(), nil
}

// Ping checks that the storage root is accessible
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.fs.Stat("/"); err != nil {
		return fmt.Errorf("storage root is not accessible: %w", err)
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return err
}
