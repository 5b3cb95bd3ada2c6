package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landingscout/landingscout/internal/scout"
	"github.com/landingscout/landingscout/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: tempDir})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesMissingDirectory", func(t *testing.T) {
		baseDir := filepath.Join(t.TempDir(), "artifacts")
		_, err := local.New(local.Config{BaseDir: baseDir})
		require.NoError(t, err)
		info, err := os.Stat(baseDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "testfile")
		require.NoError(t, err)
		t.Cleanup(func() {
			removeErr := os.Remove(tempFile.Name())
			if removeErr != nil && !os.IsNotExist(removeErr) {
				t.Fatalf("failed to remove temp file: %v", removeErr)
			}
		})

		_, err = local.New(local.Config{BaseDir: tempFile.Name()})
		assert.Error(t, err)
	})
}

func TestPutAndGetObject(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "screenshots/sess-1/r-1.png", "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(tempDir, "screenshots", "sess-1", "r-1.png"), uri)

	data, contentType, err := store.GetObject(context.Background(), "screenshots/sess-1/r-1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, data)
	assert.Equal(t, "image/png", contentType)
}

func TestGetObjectMissing(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, _, err = store.GetObject(context.Background(), "screenshots/none.png")
	require.ErrorIs(t, err, scout.ErrNotFound)
}

func TestPathTraversalRejected(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "../escape.png", "image/png", []byte("x"))
	assert.Error(t, err)

	_, _, err = store.GetObject(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
