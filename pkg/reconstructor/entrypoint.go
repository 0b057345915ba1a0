package reconstructor

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/source"
)

// isApplicationEntryPoint reports whether an existing index file is an
// application entry point rather than a library index. Entry points must
// never be overwritten with generated re-exports.
//
// Detection: markup content combined with a render-to-root call or a
// DOM-mount-point lookup; or, more loosely, markup content with more than
// 10 lines that are not imports, exports, comments or blank.
func (r *Reconstructor) isApplicationEntryPoint(f source.File) bool {
	tree, err := r.parserManager.ParseFile(f.Content, f.Path)
	if err != nil {
		return false
	}
	defer tree.Close()

	var hasMarkup, hasRenderCall, hasMountLookup bool

	parser.Walk(tree.RootNode(), func(node *ts.Node, _ *ts.Node) bool {
		switch node.Kind() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			hasMarkup = true
			return false

		case "call_expression":
			callee := calleeName(node, f.Content)
			switch callee {
			case "render", "createRoot", "hydrateRoot", "hydrate":
				hasRenderCall = true
			case "getElementById", "querySelector":
				hasMountLookup = true
			}
		}
		return true
	})

	if !hasMarkup {
		return false
	}
	if hasRenderCall || hasMountLookup {
		return true
	}

	return countBodyLines(string(f.Content)) > 10
}

// calleeName returns the last segment of the call's callee:
// ReactDOM.render → "render", createRoot → "createRoot".
func calleeName(call *ts.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(content)
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return prop.Utf8Text(content)
		}
	}
	return ""
}

// countBodyLines counts lines that are not imports, exports, comments or
// blank. Block comments spanning lines are tracked with a small state
// machine; good enough for a heuristic on recovered text.
func countBodyLines(content string) int {
	count := 0
	inBlockComment := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if inBlockComment {
			if idx := strings.Index(trimmed, "*/"); idx >= 0 {
				trimmed = strings.TrimSpace(trimmed[idx+2:])
				inBlockComment = false
			} else {
				continue
			}
		}

		if trimmed == "" ||
			strings.HasPrefix(trimmed, "//") ||
			strings.HasPrefix(trimmed, "import ") ||
			strings.HasPrefix(trimmed, "import{") ||
			strings.HasPrefix(trimmed, "export ") ||
			strings.HasPrefix(trimmed, "export{") {
			continue
		}

		if strings.HasPrefix(trimmed, "/*") {
			if !strings.Contains(trimmed, "*/") {
				inBlockComment = true
			}
			continue
		}

		count++
	}

	return count
}
