package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultMaxTries uint = 3

// Option configures the Storage returned by NewObjectStorage
type Option func(*objectStorage)

// WithRetry sets the attempt budget of every storage call. A zero maxTries
// keeps the default; a zero maxElapsed disables the time bound.
func WithRetry(maxTries uint, maxElapsed time.Duration) Option {
	return func(s *objectStorage) {
		if maxTries > 0 {
			s.maxTries = maxTries
		}
		s.maxElapsed = maxElapsed
	}
}

// WithBackOff replaces the exponential backoff between attempts
func WithBackOff(b func() backoff.BackOff) Option {
	return func(s *objectStorage) {
		s.newBackOff = b
	}
}

// WithClock overrides the time source used for marker values
func WithClock(now func() time.Time) Option {
	return func(s *objectStorage) {
		s.now = now
	}
}

// objectStorage implements Storage on top of an ObjectStore
type objectStorage struct {
	store      ObjectStore
	maxTries   uint
	maxElapsed time.Duration
	newBackOff func() backoff.BackOff
	now        func() time.Time
}

var _ Storage = (*objectStorage)(nil)

// NewObjectStorage wraps store into a Storage. Transient failures are retried
// with exponential backoff; ErrNotFound is never retried.
func NewObjectStorage(store ObjectStore, opts ...Option) Storage {
	s := &objectStorage{
		store:      store,
		maxTries:   defaultMaxTries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *objectStorage) Upload(ctx context.Context, localPath, remotePath string) error {
	err := s.retry(ctx, "upload", remotePath, func() error {
		return s.store.Put(ctx, localPath, remotePath)
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

func (s *objectStorage) Download(ctx context.Context, remotePath, localPath string) error {
	err := s.retry(ctx, "download", remotePath, func() error {
		return s.store.Get(ctx, remotePath, localPath)
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	return nil
}

func (s *objectStorage) GetRemoteMarker(ctx context.Context, key string) (int64, error) {
	remotePath := MarkerPath(key)

	var modTime time.Time
	err := s.retry(ctx, "stat", remotePath, func() error {
		var err error
		modTime, err = s.store.ModTime(ctx, remotePath)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return NoMarker, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read remote marker of '%s': %w", key, err)
	}
	return modTime.Unix(), nil
}

func (s *objectStorage) SetRemoteMarker(ctx context.Context, key string) error {
	remotePath := MarkerPath(key)
	err := s.retry(ctx, "mark", remotePath, func() error {
		return s.store.PutEmpty(ctx, remotePath)
	})
	if err != nil {
		return fmt.Errorf("failed to write remote marker of '%s': %w", key, err)
	}
	return nil
}

func (s *objectStorage) IsAuthorized(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("Storage is not authorized", "error", err)
		return false
	}
	return true
}

// retry runs op until it succeeds, fails with ErrNotFound, or the attempt
// budget is exhausted
func (s *objectStorage) retry(ctx context.Context, action, remotePath string, op func() error) error {
	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxTries),
	}
	if s.maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(s.maxElapsed))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		slog.Debug("Storage call failed",
			"action", action,
			"path", remotePath,
			"attempt", attempt,
			"error", err)
		return struct{}{}, err
	}, opts...)
	return err
}
