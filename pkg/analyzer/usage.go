package analyzer

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
)

// Analyzer classifies usage of imported bindings. Pure computation over
// file content; safe for concurrent use across independent files.
type Analyzer struct {
	parserManager *parser.ParserManager
	extractor     *extractor.Extractor
}

// NewAnalyzer creates a usage analyzer sharing the given parser manager and
// extractor.
func NewAnalyzer(pm *parser.ParserManager, ex *extractor.Extractor) *Analyzer {
	return &Analyzer{
		parserManager: pm,
		extractor:     ex,
	}
}

// AnalyzeUsage returns one ImportUsage per local binding declared by the
// file's imports, classifying every occurrence of the binding in a single
// traversal. Files that fail to parse contribute nothing.
func (a *Analyzer) AnalyzeUsage(source []byte, filePath string) []ImportUsage {
	decls := a.extractor.ExtractImports(source, filePath)
	if len(decls) == 0 {
		return nil
	}

	// Index bindings by local name for O(1) lookups during the walk.
	usages := make([]ImportUsage, 0, len(decls)*2)
	byLocal := make(map[string]*ImportUsage)
	for _, decl := range decls {
		if decl.IsSideEffect {
			continue
		}
		for _, b := range decl.Named {
			usages = append(usages, newUsage(filePath, b.LocalName, b.ImportedName, decl.Source, b.IsTypeOnly))
		}
		if decl.HasNamespaceImport && decl.NamespaceLocalName != "" {
			usages = append(usages, newUsage(filePath, decl.NamespaceLocalName, "*", decl.Source, decl.IsTypeOnly))
		}
	}
	for i := range usages {
		byLocal[usages[i].LocalName] = &usages[i]
	}
	if len(byLocal) == 0 {
		return nil
	}

	tree, err := a.parserManager.ParseFile(source, filePath)
	if err != nil {
		return nil
	}
	defer tree.Close()

	parser.Walk(tree.RootNode(), func(node *ts.Node, _ *ts.Node) bool {
		classify(node, source, byLocal)
		return true
	})

	return usages
}

func newUsage(filePath, local, imported, source string, typeOnly bool) ImportUsage {
	return ImportUsage{
		FilePath:           filePath,
		LocalName:          local,
		ImportedName:       imported,
		Source:             source,
		AccessedProperties: make(map[string]struct{}),
		ElementProperties:  make(map[string]struct{}),
		IsTypeOnly:         typeOnly,
	}
}

// classify inspects one node for usage of any tracked binding.
func classify(node *ts.Node, source []byte, byLocal map[string]*ImportUsage) {
	switch node.Kind() {
	case "member_expression":
		// Foo.Bar — only chains rooted at the bare binding count, which
		// truncates deeper chains to their first segment for free:
		// in Foo.a.b the inner member_expression has object Foo and
		// property a; the outer one's object is itself a member_expression
		// and is skipped.
		object := node.ChildByFieldName("object")
		if usage := lookupIdentifier(object, source, byLocal); usage != nil {
			if prop := node.ChildByFieldName("property"); prop != nil {
				usage.AccessedProperties[prop.Utf8Text(source)] = struct{}{}
			}
		}

	case "subscript_expression":
		// Foo["Bar"] counts as a property access; a computed non-literal
		// key (Foo[key]) is unresolvable and is dropped, never guessed.
		object := node.ChildByFieldName("object")
		if usage := lookupIdentifier(object, source, byLocal); usage != nil {
			if index := node.ChildByFieldName("index"); index != nil && index.Kind() == "string" {
				if key := parser.StringContent(index, source); key != "" {
					usage.AccessedProperties[key] = struct{}{}
				}
			}
		}

	case "call_expression":
		// Foo() — the callee must be exactly the bare binding. Foo.bar()
		// is a member_expression callee and counts as property access
		// through the member_expression case instead.
		fn := node.ChildByFieldName("function")
		if usage := lookupIdentifier(fn, source, byLocal); usage != nil {
			usage.CalledDirectly = true
		}

	case "new_expression":
		ctor := node.ChildByFieldName("constructor")
		if usage := lookupIdentifier(ctor, source, byLocal); usage != nil {
			usage.Constructed = true
		}

	case "jsx_opening_element", "jsx_self_closing_element":
		classifyElement(node, source, byLocal)
	}
}

// classifyElement handles markup-element usage: <Foo/> marks UsedAsElement,
// <Foo.Bar/> records an element property under the same first-segment
// truncation rule as plain access.
func classifyElement(node *ts.Node, source []byte, byLocal map[string]*ImportUsage) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}

	switch name.Kind() {
	case "identifier":
		if usage, ok := byLocal[name.Utf8Text(source)]; ok {
			usage.UsedAsElement = true
		}

	case "member_expression":
		object := name.ChildByFieldName("object")
		if usage := lookupIdentifier(object, source, byLocal); usage != nil {
			if prop := name.ChildByFieldName("property"); prop != nil {
				usage.ElementProperties[prop.Utf8Text(source)] = struct{}{}
			}
		}

	case "nested_identifier":
		// Older grammar revisions expose <Foo.Bar/> as a flat
		// nested_identifier: split and keep the first segment pair.
		segments := strings.Split(name.Utf8Text(source), ".")
		if len(segments) >= 2 {
			if usage, ok := byLocal[segments[0]]; ok {
				usage.ElementProperties[segments[1]] = struct{}{}
			}
		}
	}
}

// lookupIdentifier returns the tracked usage for node when node is a bare
// identifier naming a tracked binding, else nil.
func lookupIdentifier(node *ts.Node, source []byte, byLocal map[string]*ImportUsage) *ImportUsage {
	if node == nil || node.Kind() != "identifier" {
		return nil
	}
	return byLocal[node.Utf8Text(source)]
}
