package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestLoad_DefaultConfigFindsSourceFilesOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts":                     "export const a = 1;\n",
		"src/view.tsx":                   "export const v = 1;\n",
		"src/styles.css":                 "body {}\n",
		"node_modules/react/index.js":    "module.exports = {};\n",
		"dist/bundle.js":                 "var x;\n",
		"README.md":                      "# readme\n",
	})

	files, err := NewLoader(nil, DefaultLoadConfig()).Load(root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"src/app.ts", "src/view.tsx"}, paths)
}

func TestLoad_SortedDeterministically(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.ts": "export const b = 1;\n",
		"a.ts": "export const a = 1;\n",
		"c.ts": "export const c = 1;\n",
	})

	files, err := NewLoader(nil, DefaultLoadConfig()).Load(root)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "a.ts", files[0].Path)
	assert.Equal(t, "c.ts", files[2].Path)
	assert.Equal(t, "export const b = 1;\n", string(files[1].Content))
}

func TestLoad_InvalidGlobRejected(t *testing.T) {
	cfg := LoadConfig{Include: []string{"[invalid"}}
	_, err := NewLoader(nil, cfg).Load(t.TempDir())
	assert.Error(t, err)
}

func TestFile_DirAndIsIndex(t *testing.T) {
	assert.Equal(t, "src/utils", File{Path: "src/utils/index.ts"}.Dir())
	assert.Equal(t, ".", File{Path: "main.ts"}.Dir())
	assert.True(t, File{Path: "src/index.tsx"}.IsIndex())
	assert.False(t, File{Path: "src/indexer.ts"}.IsIndex())
}
