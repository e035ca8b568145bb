package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.Save("post-1", "umbrella.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/post-1/umbrella.png", url)

	data, err := os.ReadFile(filepath.Join(store.Root(), "images", "post-1", "umbrella.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveStripsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.Save("post-1", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/post-1/passwd", url)

	_, err = os.Stat(filepath.Join(store.Root(), "images", "post-1", "passwd"))
	assert.NoError(t, err)
}

func TestRemoveIdempotent(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("post-1", "a.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove("post-1"))
	require.NoError(t, store.Remove("post-1"))

	_, err = os.Stat(filepath.Join(store.Root(), "images", "post-1"))
	assert.True(t, os.IsNotExist(err))
}
