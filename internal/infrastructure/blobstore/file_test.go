package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aimeal/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "aimeal-meals")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "aimeal-meals", []byte(`[{"id":"1"}]`)))
	require.NoError(t, store.Save(ctx, "aimeal-meals", []byte(`[]`)))

	data, err := store.Load(ctx, "aimeal-meals")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "aimeal-meals.json", entries[0].Name())
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	_, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore_InvalidKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, store.Save(ctx, key, []byte("x")), domain.ErrInvalidRequest)
			_, err := store.Load(ctx, key)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestFileStore_ReadError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	// A directory where the blob file should be cannot be read as a file
	require.NoError(t, os.Mkdir(filepath.Join(dir, "broken.json"), 0o755))

	_, err = store.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBlobNotFound)
}
