package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *LocalFileStore {
	t.Helper()
	store, err := NewLocalFileStore(t.TempDir(), newMockLogger())
	require.NoError(t, err)
	return store
}

func TestLocalFileStore_SaveAndReadBack(t *testing.T) {
	store := newTestFileStore(t)
	content := []byte("%PDF-1.4 fake document body")

	path, err := store.Save(context.Background(), content, "report.pdf")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalFileStore_GeneratesUniqueNames(t *testing.T) {
	store := newTestFileStore(t)
	content := []byte("same bytes, two uploads")

	first, err := store.Save(context.Background(), content, "report.pdf")
	require.NoError(t, err)
	second, err := store.Save(context.Background(), content, "report.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, "report.pdf", filepath.Base(first))
	assert.True(t, strings.HasSuffix(first, ".pdf"))
}

func TestLocalFileStore_DefaultsExtension(t *testing.T) {
	store := newTestFileStore(t)

	path, err := store.Save(context.Background(), []byte("no extension"), "upload")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))
}

func TestLocalFileStore_SaveCancelledContext(t *testing.T) {
	store := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, []byte("never written"), "doc.pdf")
	assert.Error(t, err)
}

func TestLocalFileStore_Delete(t *testing.T) {
	store := newTestFileStore(t)

	path, err := store.Save(context.Background(), []byte("to be removed"), "doc.pdf")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Deleting again, or deleting nothing, is fine.
	assert.NoError(t, store.Delete(context.Background(), path))
	assert.NoError(t, store.Delete(context.Background(), ""))
}

func TestNewLocalFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := NewLocalFileStore(dir, newMockLogger())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
