package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/parser"
)

// buildImportDeclaration walks one import_statement node.
//
// Grammar shape (tree-sitter-javascript / -typescript):
//
//	import_statement: "import" ["type"] [import_clause "from"] string ";"
//	import_clause:    identifier | namespace_import | named_imports
//	named_imports:    "{" import_specifier* "}"
//	import_specifier: ["type"] name: identifier ["as" alias: identifier]
func buildImportDeclaration(stmt *ts.Node, source []byte) *ImportDeclaration {
	decl := &ImportDeclaration{}
	hasClause := false

	for i := uint(0); i < uint(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string":
			decl.Source = parser.StringContent(child, source)
		case "type":
			// "import type" keyword sits directly under the statement.
			decl.IsTypeOnly = true
		case "import_clause":
			hasClause = true
			collectImportClause(child, source, decl)
		}
	}

	if decl.Source == "" {
		return nil
	}
	decl.IsSideEffect = !hasClause
	return decl
}

func collectImportClause(clause *ts.Node, source []byte, decl *ImportDeclaration) {
	for i := uint(0); i < uint(clause.ChildCount()); i++ {
		child := clause.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			// Default import: import Foo from '...'. Recorded both as a
			// flag and as a pseudo-named binding for "default" so the
			// missing-export match can treat default uniformly.
			decl.HasDefaultImport = true
			decl.DefaultLocalName = child.Utf8Text(source)
			decl.Named = append(decl.Named, NamedBinding{
				LocalName:    decl.DefaultLocalName,
				ImportedName: "default",
				IsTypeOnly:   decl.IsTypeOnly,
			})
		case "namespace_import":
			// import * as ns from '...'
			decl.HasNamespaceImport = true
			if ident := parser.NamedChildOfKind(child, "identifier"); ident != nil {
				decl.NamespaceLocalName = ident.Utf8Text(source)
			}
		case "named_imports":
			collectNamedImports(child, source, decl)
		}
	}
}

func collectNamedImports(node *ts.Node, source []byte, decl *ImportDeclaration) {
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		spec := node.Child(i)
		if spec == nil || spec.Kind() != "import_specifier" {
			continue
		}

		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		binding := NamedBinding{
			LocalName:    nameNode.Utf8Text(source),
			ImportedName: nameNode.Utf8Text(source),
			IsTypeOnly:   decl.IsTypeOnly,
		}

		// import { Foo as Bar }: usage scanning sees Bar, export matching
		// needs Foo.
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			binding.LocalName = alias.Utf8Text(source)
		}

		// import { type Foo }: per-specifier type marker.
		if parser.NamedChildOfKind(spec, "type") != nil {
			binding.IsTypeOnly = true
		}

		decl.Named = append(decl.Named, binding)
	}
}
