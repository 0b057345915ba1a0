package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_ReadAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1;\n"), 0o644))

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;\n", string(content))

	// Second read serves from cache.
	again, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, content, again)
	assert.Equal(t, 1, fc.Size())
}

func TestFileCache_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.ts")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.Read(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestFileCache_InvalidateReloadsGrownFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1;\n"), 0o644))

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;\n", string(content))

	// Grow the file. The mapped view keeps the old length, so a plain
	// re-read would miss the appended line.
	grown := "export const a = 1;\nexport const added = 2;\n"
	require.NoError(t, os.WriteFile(path, []byte(grown), 0o644))

	fc.Invalidate(path)

	content, err = fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, grown, string(content))
	assert.Equal(t, 1, fc.Size())
}

func TestFileCache_InvalidateUncachedPath(t *testing.T) {
	fc := NewFileCache(nil)
	defer fc.Close()

	fc.Invalidate(filepath.Join(t.TempDir(), "never-read.ts"))
	assert.Equal(t, 0, fc.Size())
}

func TestFileCache_MissingFile(t *testing.T) {
	fc := NewFileCache(nil)
	defer fc.Close()

	_, err := fc.Read(filepath.Join(t.TempDir(), "nope.ts"))
	assert.Error(t, err)
}

func TestGetOptimalPoolSize_Bounds(t *testing.T) {
	size := GetOptimalPoolSize()
	assert.GreaterOrEqual(t, size, 4)
	assert.LessOrEqual(t, size, 32)
	assert.Equal(t, 7, GetOptimalPoolSizeWithOverride(7))
	assert.Equal(t, size, GetOptimalPoolSizeWithOverride(0))
}

func TestEnsureObserver(t *testing.T) {
	assert.NotNil(t, EnsureObserver(nil))
	obs := NopObserver{}
	assert.Equal(t, obs, EnsureObserver(obs))
}
