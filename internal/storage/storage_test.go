package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/storage/mocks"
)

func noWait() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "backups/game/saves.zip", ArchivePath("game", "saves"))
	assert.Equal(t, "backups/game/last_sync", MarkerPath("game"))
}

func TestGetRemoteMarker(t *testing.T) {
	t.Parallel()

	modTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		setup       func(m *mocks.MockObjectStore)
		expected    int64
		expectError bool
	}{
		{
			name: "marker present",
			setup: func(m *mocks.MockObjectStore) {
				m.EXPECT().ModTime(gomock.Any(), "backups/game/last_sync").Return(modTime, nil)
			},
			expected: modTime.Unix(),
		},
		{
			name: "marker absent maps to sentinel without retry",
			setup: func(m *mocks.MockObjectStore) {
				m.EXPECT().ModTime(gomock.Any(), "backups/game/last_sync").Return(time.Time{}, ErrNotFound).Times(1)
			},
			expected: NoMarker,
		},
		{
			name: "transient failure is retried",
			setup: func(m *mocks.MockObjectStore) {
				gomock.InOrder(
					m.EXPECT().ModTime(gomock.Any(), gomock.Any()).Return(time.Time{}, errors.New("timeout")),
					m.EXPECT().ModTime(gomock.Any(), gomock.Any()).Return(modTime, nil),
				)
			},
			expected: modTime.Unix(),
		},
		{
			name: "persistent failure is an error",
			setup: func(m *mocks.MockObjectStore) {
				m.EXPECT().ModTime(gomock.Any(), gomock.Any()).Return(time.Time{}, errors.New("forbidden")).Times(3)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			store := mocks.NewMockObjectStore(ctrl)
			tt.setup(store)

			s := NewObjectStorage(store, WithBackOff(noWait))
			got, err := s.GetRemoteMarker(context.Background(), "game")
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "game")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUploadDownload(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)

	store.EXPECT().Put(gomock.Any(), "/tmp/a.zip", "backups/game/a.zip").Return(nil)
	store.EXPECT().Get(gomock.Any(), "backups/game/a.zip", "/tmp/b.zip").Return(nil)
	store.EXPECT().PutEmpty(gomock.Any(), "backups/game/last_sync").Return(nil)

	s := NewObjectStorage(store, WithBackOff(noWait))
	ctx := context.Background()
	require.NoError(t, s.Upload(ctx, "/tmp/a.zip", "backups/game/a.zip"))
	require.NoError(t, s.Download(ctx, "backups/game/a.zip", "/tmp/b.zip"))
	require.NoError(t, s.SetRemoteMarker(ctx, "game"))
}

func TestDownload_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(ErrNotFound).Times(1)

	s := NewObjectStorage(store, WithBackOff(noWait), WithRetry(5, 0))
	err := s.Download(context.Background(), "backups/game/a.zip", "/tmp/a.zip")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWithRetry_MaxTries(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)
	store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("boom")).Times(5)

	s := NewObjectStorage(store, WithBackOff(noWait), WithRetry(5, time.Minute))
	err := s.Upload(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestIsAuthorized(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	ok := mocks.NewMockObjectStore(ctrl)
	ok.EXPECT().Ping(gomock.Any()).Return(nil)
	assert.True(t, NewObjectStorage(ok).IsAuthorized(context.Background()))

	denied := mocks.NewMockObjectStore(ctrl)
	denied.EXPECT().Ping(gomock.Any()).Return(errors.New("access denied"))
	assert.False(t, NewObjectStorage(denied).IsAuthorized(context.Background()))
}

func TestUnconfigured(t *testing.T) {
	t.Parallel()

	s := NewUnconfigured()
	ctx := context.Background()
	assert.False(t, s.IsAuthorized(ctx))
	assert.ErrorIs(t, s.Upload(ctx, "a", "b"), ErrNotConfigured)
	assert.ErrorIs(t, s.Download(ctx, "a", "b"), ErrNotConfigured)
	assert.ErrorIs(t, s.SetRemoteMarker(ctx, "k"), ErrNotConfigured)
	_, err := s.GetRemoteMarker(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// Registry tests mutate package state and must not run in parallel
func TestRegistry(t *testing.T) {
	UnregisterAll()
	t.Cleanup(UnregisterAll)

	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)

	Register("fake", func(_ context.Context, _ *config.StorageConfig) (ObjectStore, error) {
		return store, nil
	})
	Register("broken", func(_ context.Context, _ *config.StorageConfig) (ObjectStore, error) {
		return nil, errors.New("no credentials")
	})

	assert.True(t, IsRegistered("fake"))
	assert.False(t, IsRegistered("dropbox"))
	assert.Equal(t, []string{"broken", "fake"}, RegisteredTypes())

	assert.Panics(t, func() {
		Register("fake", func(context.Context, *config.StorageConfig) (ObjectStore, error) { return nil, nil })
	})
	assert.Panics(t, func() { Register("nil", nil) })

	ctx := context.Background()

	s, err := New(ctx, &config.StorageConfig{Type: "fake", Retry: &config.RetryConfig{MaxTries: 1}})
	require.NoError(t, err)
	store.EXPECT().Ping(gomock.Any()).Return(nil)
	assert.True(t, s.IsAuthorized(ctx))

	_, err = New(ctx, &config.StorageConfig{Type: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")

	_, err = New(ctx, &config.StorageConfig{Type: "dropbox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")

	s, err = New(ctx, nil)
	require.NoError(t, err)
	assert.False(t, s.IsAuthorized(ctx))
}
