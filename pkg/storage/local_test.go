package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocalDisk(root, "http://cdn.test/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "products/1/a.jpg", strings.NewReader("img"), "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(root, "products", "1", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	ok, err := d.Exists(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://cdn.test/storage/products/1/a.jpg", d.URL("products/1/a.jpg"))

	require.NoError(t, d.Delete(ctx, "products/1/a.jpg"))
	require.NoError(t, d.Delete(ctx, "products/1/a.jpg"))
	ok, _ = d.Exists(ctx, "products/1/a.jpg")
	assert.False(t, ok)
}

func TestLocalDisk_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	d, err := NewLocalDisk(root, "")
	require.NoError(t, err)

	require.NoError(t, d.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), ""))
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}
