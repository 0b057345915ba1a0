package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/parser"
)

// collectExports walks one export_statement node into the set.
//
// Grammar shapes handled:
//
//	export declaration                      function/class/const/interface/...
//	export default value|declaration
//	export { a, b as c }                    local list
//	export { a } from './y'                 forwarded (forwarding mode only)
//	export * as X from './y'                forwarded namespace (forwarding mode only)
//	export * from './y'                     never expanded in either mode
//	export type { ... } [from './y']        type-only variants
func collectExports(stmt *ts.Node, source []byte, set *ExportSet, forwarding bool) {
	hasSource := stmt.ChildByFieldName("source") != nil
	isTypeOnly := false
	isDefault := false
	var clause, nsExport *ts.Node

	for i := uint(0); i < uint(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "type":
			isTypeOnly = true
		case "default":
			isDefault = true
		case "export_clause":
			clause = child
		case "namespace_export":
			nsExport = child
		}
	}

	// export default value; / export default function () {}
	if isDefault {
		set.HasDefault = true
		return
	}

	// export [declaration]
	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		collectDeclarationNames(decl, source, set)
		return
	}

	// export * as X from './y' — forwarded namespace re-export.
	if nsExport != nil {
		if !hasSource || !forwarding {
			return
		}
		if ident := parser.NamedChildOfKind(nsExport, "identifier"); ident != nil {
			set.Named[ident.Utf8Text(source)] = struct{}{}
		}
		return
	}

	// export * from './y' — a bare star with a source. Unbounded without
	// recursive resolution; contributes nothing in either mode.
	if clause == nil {
		return
	}

	// export { ... } lists, local or forwarded.
	if hasSource && !forwarding {
		return
	}
	collectExportClause(clause, source, set, isTypeOnly)
}

// collectExportClause handles export { a, b as c, type T } specifiers.
// The exported (outer) name is the alias when present.
func collectExportClause(clause *ts.Node, source []byte, set *ExportSet, stmtTypeOnly bool) {
	for i := uint(0); i < uint(clause.ChildCount()); i++ {
		spec := clause.Child(i)
		if spec == nil || spec.Kind() != "export_specifier" {
			continue
		}

		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		exported := nameNode.Utf8Text(source)
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = alias.Utf8Text(source)
		}

		specTypeOnly := stmtTypeOnly || parser.NamedChildOfKind(spec, "type") != nil

		switch {
		case exported == "default":
			set.HasDefault = true
		case specTypeOnly:
			set.Types[exported] = struct{}{}
		default:
			set.Named[exported] = struct{}{}
		}
	}
}

// collectDeclarationNames handles exported declarations:
// export function f() {}, export const a = 1, export interface I {}, etc.
func collectDeclarationNames(decl *ts.Node, source []byte, set *ExportSet) {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"enum_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			set.Named[name.Utf8Text(source)] = struct{}{}
		}

	case "interface_declaration", "type_alias_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			set.Types[name.Utf8Text(source)] = struct{}{}
		}

	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < uint(decl.ChildCount()); i++ {
			child := decl.Child(i)
			if child == nil || child.Kind() != "variable_declarator" {
				continue
			}
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			switch name.Kind() {
			case "identifier":
				set.Named[name.Utf8Text(source)] = struct{}{}
			case "object_pattern", "array_pattern":
				// export const { a, b } = obj — collect the bound
				// identifiers out of the pattern.
				collectPatternIdentifiers(name, source, set)
			}
		}
	}
}

// collectPatternIdentifiers pulls bound names out of destructuring patterns.
// Only binding positions count: in { a: b }, b is the binding, not a.
func collectPatternIdentifiers(pattern *ts.Node, source []byte, set *ExportSet) {
	parser.Walk(pattern, func(node *ts.Node, parent *ts.Node) bool {
		switch node.Kind() {
		case "shorthand_property_identifier_pattern", "identifier":
			if parent != nil && parent.Kind() == "pair_pattern" {
				// Visit values only; the key side is skipped below.
				if key := parent.ChildByFieldName("key"); key != nil && key.Id() == node.Id() {
					return false
				}
			}
			set.Named[node.Utf8Text(source)] = struct{}{}
			return false
		}
		return true
	})
}
