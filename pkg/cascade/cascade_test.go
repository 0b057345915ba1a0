package cascade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
	"github.com/gnana997/unbundle/pkg/util"
)

func newTestManagers(t *testing.T) (*parser.ParserManager, *queries.QueryManager) {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	t.Cleanup(func() {
		_ = qm.Close()
		_ = pm.Close()
	})
	return pm, qm
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestResolve_CopiesFromStaticDirWithSourceMap(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()
	static := t.TempDir()

	writeTree(t, bundles, map[string]string{
		"main.js": "import './chunk-a.js';\n",
	})
	writeTree(t, static, map[string]string{
		"chunk-a.js":     "export const a = 1;\n",
		"chunk-a.js.map": "{}",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles, StaticDir: static})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CopiedFiles)
	assert.Equal(t, 0, result.FetchedFiles)
	assert.Equal(t, 0, result.FailedFiles)

	require.Len(t, result.ResolvedFiles, 1)
	assert.Equal(t, SourceCopied, result.ResolvedFiles[0].Source)
	assert.True(t, result.ResolvedFiles[0].HasSourceMap)

	assert.FileExists(t, filepath.Join(bundles, "chunk-a.js"))
	assert.FileExists(t, filepath.Join(bundles, "chunk-a.js.map"))
}

func TestResolve_FetchesTransitiveReferences(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()
	static := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/chunks/chunk-b.js" {
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte("export const b = 2;\n"))
			return
		}
		http.NotFound(w, req)
	}))
	defer srv.Close()

	writeTree(t, bundles, map[string]string{
		"chunks/main.js": "import('./chunk-a.js');\n",
	})
	writeTree(t, static, map[string]string{
		"chunks/chunk-a.js": "import('./chunk-b.js');\n",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles, StaticDir: static, BaseURL: srv.URL})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	// chunk-a lands by copy in round one, chunk-b by fetch in round two,
	// round three finds nothing new.
	assert.Equal(t, 1, result.CopiedFiles)
	assert.Equal(t, 1, result.FetchedFiles)
	assert.Equal(t, 3, result.Iterations)

	assert.FileExists(t, filepath.Join(bundles, "chunks", "chunk-b.js"))
}

func TestResolve_FailedFetchAttemptedAtMostOnce(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts.Add(1)
		http.NotFound(w, req)
	}))
	defer srv.Close()

	writeTree(t, bundles, map[string]string{
		"main.js": "const m = require('./missing.js');\n",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles, BaseURL: srv.URL})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedFiles)
	assert.Equal(t, int32(1), attempts.Load())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing.js")
	assert.Equal(t, 1, result.Iterations)
}

func TestResolve_FixpointWhenEverythingPresent(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()

	writeTree(t, bundles, map[string]string{
		"main.js":  "import './chunk.js';\n",
		"chunk.js": "export const c = 1;\n",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Zero(t, result.CopiedFiles)
	assert.Zero(t, result.FetchedFiles)
	assert.Zero(t, result.FailedFiles)
}

func TestResolve_CSSImportsFollowed(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()
	static := t.TempDir()

	writeTree(t, bundles, map[string]string{
		"styles.css": "@import './theme.css';\nbody { margin: 0; }\n",
	})
	writeTree(t, static, map[string]string{
		"theme.css": ":root { --bg: white; }\n",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles, StaticDir: static})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CopiedFiles)
	assert.FileExists(t, filepath.Join(bundles, "theme.css"))
}

func TestResolve_NonRelativeAndTemplateReferencesSkipped(t *testing.T) {
	pm, qm := newTestManagers(t)
	bundles := t.TempDir()

	writeTree(t, bundles, map[string]string{
		"main.js": "import 'react';\nimport(`./chunk-${n}.js`);\nimport('../escape.js');\n",
	})

	r := NewResolver(pm, qm, Config{BundlesDir: bundles})
	result, err := r.Resolve(context.Background(), util.NopObserver{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ResolvedFiles)
	assert.Zero(t, result.FailedFiles)
}

func TestCSSImports_BothForms(t *testing.T) {
	refs := cssImports([]byte(`
@import './a.css';
@import url("./b.css");
@import url(./unquoted.css);
`))
	assert.Equal(t, []string{"./a.css", "./b.css"}, refs)
}
