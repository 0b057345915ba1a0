package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
)

func parseSource(t *testing.T, src string, path string) (*ts.Tree, *ParserManager) {
	t.Helper()
	pm := NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })

	tree, err := pm.ParseFile([]byte(src), path)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree, pm
}

func TestWalk_VisitsEveryNodeWithParent(t *testing.T) {
	tree, _ := parseSource(t, "const a = 1;\n", "a.js")

	var kinds []string
	Walk(tree.RootNode(), func(node *ts.Node, parent *ts.Node) bool {
		kinds = append(kinds, node.Kind())
		if parent == nil {
			assert.Equal(t, "program", node.Kind())
		}
		return true
	})

	assert.Contains(t, kinds, "lexical_declaration")
	assert.Contains(t, kinds, "identifier")
	assert.Equal(t, "program", kinds[0], "traversal is pre-order from the root")
}

func TestWalk_FalseSkipsSubtree(t *testing.T) {
	tree, _ := parseSource(t, "function f() { const inner = 1; }\n", "a.js")

	var sawInner bool
	Walk(tree.RootNode(), func(node *ts.Node, parent *ts.Node) bool {
		if node.Kind() == "statement_block" {
			return false
		}
		if node.Kind() == "identifier" && node.Utf8Text([]byte("function f() { const inner = 1; }\n")) == "inner" {
			sawInner = true
		}
		return true
	})

	assert.False(t, sawInner)
}

func TestStringContent_StripsQuotes(t *testing.T) {
	src := "import './mod';\nconst empty = '';\n"
	tree, _ := parseSource(t, src, "a.js")

	var contents []string
	Walk(tree.RootNode(), func(node *ts.Node, parent *ts.Node) bool {
		if node.Kind() == "string" {
			contents = append(contents, StringContent(node, []byte(src)))
		}
		return true
	})

	assert.Equal(t, []string{"./mod", ""}, contents)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LanguageTypeScript, DetectLanguage("a.ts"))
	assert.Equal(t, LanguageTypeScript, DetectLanguage("a.tsx"))
	assert.Equal(t, LanguageJavaScript, DetectLanguage("a.mjs"))
	assert.Equal(t, LanguageUnknown, DetectLanguage("a.css"))
	assert.True(t, IsTSXFile("Component.TSX"))
	assert.False(t, IsTSXFile("Component.ts"))
}

func TestStripSourceExtension(t *testing.T) {
	assert.Equal(t, "./utils/date", StripSourceExtension("./utils/date.ts"))
	assert.Equal(t, "./styles.css", StripSourceExtension("./styles.css"))
	assert.Equal(t, "index", StripSourceExtension("index.tsx"))
}

func TestParserManager_ReusesPooledParsers(t *testing.T) {
	pm := NewParserManager(nil)
	defer pm.Close()

	for i := 0; i < 8; i++ {
		tree, err := pm.Parse([]byte("const x = 1;\n"), LanguageJavaScript, false)
		require.NoError(t, err)
		tree.Close()
	}

	_, err := pm.Parse([]byte("let y;"), LanguageUnknown, false)
	assert.Error(t, err)
}
