package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_CreateBucket(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	require.NoError(t, provider.CreateBucket(context.Background(), "uploads"))

	info, err := os.Stat(filepath.Join(baseDir, "uploads"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalProvider_PutObject(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	content := []byte("fake png bytes")
	err := provider.PutObject(context.Background(), "uploads", "user-1/rx1.png", bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, "uploads", "user-1", "rx1.png"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_GetObject(t *testing.T) {
	provider, _ := setupTestProvider(t)

	content := []byte("fake pdf bytes")
	require.NoError(t, provider.PutObject(context.Background(), "uploads", "user-1/cbc.pdf", bytes.NewReader(content)))

	data, err := provider.GetObject(context.Background(), "uploads", "user-1/cbc.pdf")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = provider.GetObject(context.Background(), "uploads", "user-1/missing.pdf")
	assert.Error(t, err)
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupTestProvider(t)

	files := []string{"user-1/rx1.png", "user-1/rx2.png", "user-2/other.png"}
	for _, file := range files {
		require.NoError(t, provider.PutObject(context.Background(), "uploads", file, bytes.NewReader([]byte("content"))))
	}

	objects, err := provider.ListObjects(context.Background(), "uploads", "user-1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	names := []string{objects[0].Name, objects[1].Name}
	assert.ElementsMatch(t, []string{"user-1/rx1.png", "user-1/rx2.png"}, names)
	assert.Equal(t, int64(len("content")), objects[0].Size)
}

func TestLocalProvider_ListObjects_MissingBucket(t *testing.T) {
	provider, _ := setupTestProvider(t)

	objects, err := provider.ListObjects(context.Background(), "does-not-exist", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
