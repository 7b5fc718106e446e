package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
)

func TestStore_OnDisk(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "remote")
	obj, err := New(context.Background(), &config.StorageConfig{
		Type:  config.StorageTypeLocal,
		Local: &config.LocalConfig{Root: root},
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, obj.Ping(ctx))

	src := filepath.Join(t.TempDir(), "saves.zip")
	require.NoError(t, os.WriteFile(src, []byte("archive"), 0600))
	require.NoError(t, obj.Put(ctx, src, storage.ArchivePath("game", "saves")))

	data, err := os.ReadFile(filepath.Join(root, "backups", "game", "saves.zip"))
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))
	assert.NoFileExists(t, filepath.Join(root, "backups", "game", "saves.zip.tmp"))

	dst := filepath.Join(t.TempDir(), "restore", "saves.zip")
	require.NoError(t, obj.Get(ctx, storage.ArchivePath("game", "saves"), dst))
	data, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))
}

func TestStore_Marker(t *testing.T) {
	t.Parallel()

	store := NewWithFilesystem(memfs.New())
	ctx := context.Background()

	_, err := store.ModTime(ctx, storage.MarkerPath("game"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.PutEmpty(ctx, storage.MarkerPath("game")))
	modTime, err := store.ModTime(ctx, storage.MarkerPath("game"))
	require.NoError(t, err)
	assert.False(t, modTime.IsZero())

	data, err := util.ReadFile(store.fs, storage.MarkerPath("game"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	store := NewWithFilesystem(memfs.New())
	err := store.Get(context.Background(), "backups/game/missing.zip", filepath.Join(t.TempDir(), "a.zip"))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_MarkersThroughStorage(t *testing.T) {
	t.Parallel()

	s := storage.NewObjectStorage(NewWithFilesystem(memfs.New()))
	ctx := context.Background()

	marker, err := s.GetRemoteMarker(ctx, "game")
	require.NoError(t, err)
	assert.Equal(t, storage.NoMarker, marker)

	require.NoError(t, s.SetRemoteMarker(ctx, "game"))
	marker, err = s.GetRemoteMarker(ctx, "game")
	require.NoError(t, err)
	assert.Positive(t, marker)
	assert.True(t, s.IsAuthorized(ctx))
}

func TestNew_RequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &config.StorageConfig{Type: config.StorageTypeLocal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local.root is required")
}
