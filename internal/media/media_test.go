package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"posts/a.png", "a.gif", "posts/2024/b.webp"} {
		assert.NoError(t, ValidateKey(key), key)
	}
	for _, key := range []string{"", "/etc/passwd", "../secret", "posts/../../x", "posts//a.png", "posts/./a", `posts\a.png`} {
		assert.ErrorIs(t, ValidateKey(key), ErrInvalidKey, key)
	}
}

func TestNewPostImageKey(t *testing.T) {
	key := NewPostImageKey(".png")
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NoError(t, ValidateKey(key))
	assert.NotEqual(t, key, NewPostImageKey(".png"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "media"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "posts/pic.png", []byte("png-bytes")))

	obj, err := store.Open(ctx, "posts/pic.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType())
	assert.False(t, obj.ModTime.IsZero())

	// No temporary files are left next to the object
	entries, err := os.ReadDir(filepath.Join(root, "media", "posts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, "posts/pic.png"))
	_, err = store.Open(ctx, "posts/pic.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "posts/pic.png"), ErrNotFound)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(context.Background(), "../escape.png", []byte("x")), ErrInvalidKey)
	_, err = store.Open(context.Background(), "posts")
	assert.ErrorIs(t, err, ErrNotFound)
}
