package reconstructor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
	"github.com/gnana997/unbundle/pkg/resolver"
	"github.com/gnana997/unbundle/pkg/source"
	"github.com/gnana997/unbundle/pkg/util"
)

func newTestReconstructor(t *testing.T) *Reconstructor {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	t.Cleanup(func() {
		_ = qm.Close()
		_ = pm.Close()
	})
	ex := extractor.NewExtractor(pm, qm)
	cache, err := resolver.NewAnalysisCache(ex, resolver.DefaultCacheSize)
	require.NoError(t, err)
	return New(pm, analyzer.NewAnalyzer(pm, ex), cache, nil)
}

func file(path, content string) source.File {
	return source.File{Path: path, Content: []byte(content)}
}

func indexFor(t *testing.T, result Result, dir string) RegeneratedIndex {
	t.Helper()
	for _, idx := range result.Indexes {
		if idx.Dir == dir {
			return idx
		}
	}
	t.Fatalf("no regenerated index for %q in %+v", dir, result.Indexes)
	return RegeneratedIndex{}
}

func TestReconstruct_AppendsMissingReexportPreservingExisting(t *testing.T) {
	r := newTestReconstructor(t)

	existing := "export function clamp(v, lo, hi) { return Math.min(hi, Math.max(lo, v)); }\n"
	files := []source.File{
		file("src/app.ts", "import { clamp, debounce } from './utils';\nclamp(1, 0, 2);\ndebounce(1);\n"),
		file("src/utils/index.ts", existing),
		file("src/utils/timing.ts", "export const debounce = (fn) => fn;\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	require.Len(t, result.Indexes, 1)

	idx := indexFor(t, result, "src/utils")
	assert.True(t, idx.Existed)
	assert.Equal(t, "src/utils/index.ts", idx.Path)

	// Existing content survives byte for byte; clamp is already exposed
	// and must not be regenerated.
	assert.True(t, strings.HasPrefix(idx.Content, existing))
	assert.Contains(t, idx.Content, "export { debounce } from './timing';")
	assert.Equal(t, 1, strings.Count(idx.Content, "clamp"))

	require.Len(t, idx.Resolved, 1)
	assert.Equal(t, "debounce", idx.Resolved[0].Name)
	assert.Equal(t, "src/utils/timing.ts", idx.Resolved[0].SourcePath)
}

func TestReconstruct_CreatesIndexWhereNoneExists(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { User } from './models';\nconst u = new User();\n"),
		file("src/models/user.ts", "export class User {}\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, result, "src/models")

	assert.False(t, idx.Existed)
	assert.Equal(t, "src/models/index.ts", idx.Path)
	assert.Contains(t, idx.Content, "export { User } from './user';")
}

func TestReconstruct_DefaultExportMatchedByBasename(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.tsx", "import { Modal } from './components';\nexport const App = () => <Modal />;\n"),
		file("src/components/Modal.tsx", "export default function Modal() { return null; }\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, result, "src/components")

	assert.Contains(t, idx.Content, "export { default as Modal } from './Modal';")
	require.Len(t, idx.Resolved, 1)
	assert.True(t, idx.Resolved[0].DefaultAsNamed)
}

func TestReconstruct_UnresolvedEmittedAsVisibleComment(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { mystery } from './utils';\nmystery();\n"),
		file("src/utils/index.ts", "export const known = 1;\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, result, "src/utils")

	require.Len(t, idx.Unresolved, 1)
	assert.Equal(t, "mystery", idx.Unresolved[0].Name)
	assert.Contains(t, idx.Content, "// unresolved: mystery")
	assert.Equal(t, 1, result.TotalUnresolved)
}

func TestReconstruct_IdempotentOverOwnOutput(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { debounce, mystery } from './utils';\ndebounce(1);\nmystery();\n"),
		file("src/utils/index.ts", "export const known = 1;\n"),
		file("src/utils/timing.ts", "export const debounce = (fn) => fn;\n"),
	}

	first := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, first, "src/utils")

	// Feed the regenerated index back in as the on-disk state.
	files[1] = file("src/utils/index.ts", idx.Content)

	second := r.ReconstructAll(files, nil, util.NopObserver{})
	assert.Empty(t, second.Indexes,
		"second run over regenerated output must change nothing")
}

func TestReconstruct_DeterministicAcrossRuns(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { b, a, c } from './lib';\na();\nb();\nc();\n"),
		file("src/lib/ab.ts", "export const a = 1;\nexport const b = 2;\n"),
		file("src/lib/c.ts", "export const c = 3;\n"),
	}

	first := r.ReconstructAll(files, nil, util.NopObserver{})
	second := r.ReconstructAll(files, nil, util.NopObserver{})

	require.Len(t, first.Indexes, 1)
	require.Len(t, second.Indexes, 1)
	assert.Equal(t, first.Indexes[0].Content, second.Indexes[0].Content)

	// Grouped statement with alphabetical symbols.
	assert.Contains(t, first.Indexes[0].Content, "export { a, b } from './ab';")
}

func TestReconstruct_SkipsApplicationEntryPoint(t *testing.T) {
	r := newTestReconstructor(t)

	entry := `import React from 'react';
import { createRoot } from 'react-dom/client';
const root = createRoot(document.getElementById('root'));
root.render(<div>hello</div>);
`
	files := []source.File{
		file("src/index.tsx", entry),
		file("src/other.ts", "import { App } from '.';\nApp();\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	assert.Empty(t, result.Indexes)
}

func TestReconstruct_SkipsEntryPointByBodySize(t *testing.T) {
	r := newTestReconstructor(t)

	// No render or mount call; markup plus a body well past the line
	// threshold is still an application entry point.
	entry := `import React from 'react';

const links = [
  { path: '/', label: 'Home' },
  { path: '/about', label: 'About' },
];

function App() {
  const [active, setActive] = React.useState('/');
  const items = links.map((l) => (
    <li key={l.path} onClick={() => setActive(l.path)}>{l.label}</li>
  ));
  return (
    <nav>
      <ul>{items}</ul>
      <span>{active}</span>
    </nav>
  );
}

export default App;
`
	files := []source.File{
		file("src/index.tsx", entry),
		file("src/other.ts", "import { App } from '.';\nApp();\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	assert.Empty(t, result.Indexes)
}

func TestReconstruct_SmallMarkupIndexIsRegenerated(t *testing.T) {
	r := newTestReconstructor(t)

	// Markup alone is not enough: a one-line component index stays a
	// library index and still receives the missing re-export.
	files := []source.File{
		file("src/index.tsx", "export const Badge = () => <span>ok</span>;\n"),
		file("src/other.ts", "import { App } from '.';\nApp();\n"),
		file("src/App.tsx", "export function App() { return <div/>; }\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, result, "src")

	require.Len(t, idx.Resolved, 1)
	assert.Equal(t, "src/App.tsx", idx.Resolved[0].SourcePath)
	assert.Contains(t, idx.Content, "export { App } from './App';")
}

func TestReconstruct_AmbiguousProviderWarnsAndPicksFirst(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { helper } from './utils';\nhelper();\n"),
		file("src/utils/a.ts", "export const helper = 1;\n"),
		file("src/utils/b.ts", "export const helper = 2;\n"),
	}

	result := r.ReconstructAll(files, nil, util.NopObserver{})
	idx := indexFor(t, result, "src/utils")

	require.Len(t, idx.Resolved, 1)
	assert.Equal(t, "src/utils/a.ts", idx.Resolved[0].SourcePath)
	assert.NotEmpty(t, result.Warnings)
}

func TestReconstruct_AliasTargetsResolved(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("src/app.ts", "import { Button } from '@ui/components';\nButton();\n"),
		file("lib/components/button.ts", "export const Button = () => null;\n"),
	}
	aliases := []AliasMapping{{Alias: "@ui", Path: "lib"}}

	result := r.ReconstructAll(files, aliases, util.NopObserver{})
	idx := indexFor(t, result, "lib/components")

	assert.Contains(t, idx.Content, "export { Button } from './button';")
}

func TestGenerateAliasIndexes_StarExportsPerModuleFile(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("lib/ui/button.ts", "export const Button = 1;\n"),
		file("lib/ui/modal.ts", "export const Modal = 2;\n"),
		file("lib/ui/styles.css", ".btn {}\n"),
	}
	aliases := []AliasMapping{{Alias: "@ui", Path: "lib/ui"}}

	indexes := r.GenerateAliasIndexes(files, aliases)
	require.Len(t, indexes, 1)

	assert.Equal(t, "lib/ui/index.ts", indexes[0].Path)
	assert.Equal(t, "export * from './button';\nexport * from './modal';\n", indexes[0].Content)
}

func TestGenerateAliasIndexes_ExistingIndexUntouched(t *testing.T) {
	r := newTestReconstructor(t)

	files := []source.File{
		file("lib/ui/index.ts", "export const x = 1;\n"),
		file("lib/ui/button.ts", "export const Button = 1;\n"),
	}
	aliases := []AliasMapping{{Alias: "@ui", Path: "lib/ui"}}

	assert.Empty(t, r.GenerateAliasIndexes(files, aliases))
}
