// Package extractor pulls declared imports and exports out of one recovered
// source file.
//
// Everything here is recomputed per pass over immutable file content; the
// package holds no state beyond compiled-query caches shared through the
// queries.QueryManager.
package extractor

// NamedBinding is one specifier of a named import:
// import { ImportedName as LocalName } from '...'.
//
// Both names are kept because aliasing requires looking up ImportedName in a
// target file's exports while scanning usage of LocalName.
type NamedBinding struct {
	// LocalName is the binding visible in the importing file.
	LocalName string

	// ImportedName is the name declared by the source module. Equal to
	// LocalName when no alias is present. "default" for default imports.
	ImportedName string

	// IsTypeOnly marks per-specifier type imports: import { type Foo }.
	IsTypeOnly bool
}

// ImportDeclaration describes one import statement.
type ImportDeclaration struct {
	// Source is the module specifier with quotes stripped, e.g. "./utils"
	// or "react".
	Source string

	// Named holds the named specifiers. A default import additionally
	// appears here with ImportedName "default" so missing-export matching
	// can treat it uniformly.
	Named []NamedBinding

	// HasDefaultImport is true for: import Foo from '...'.
	HasDefaultImport bool

	// DefaultLocalName is the local binding of the default import.
	DefaultLocalName string

	// HasNamespaceImport is true for: import * as ns from '...'.
	// Namespace imports are tracked separately: "*" cannot name one
	// specific missing export and must never reach the export resolver.
	HasNamespaceImport bool

	// NamespaceLocalName is the local binding of the namespace import.
	NamespaceLocalName string

	// IsTypeOnly marks whole-declaration type imports: import type { ... }.
	IsTypeOnly bool

	// IsSideEffect is true for bare imports: import './polyfill'.
	IsSideEffect bool
}

// LocalBindings returns every local name this declaration introduces,
// namespace binding included. Used by the usage analyzer to know which
// identifiers to track.
func (d ImportDeclaration) LocalBindings() []string {
	var names []string
	if d.HasDefaultImport && d.DefaultLocalName != "" {
		names = append(names, d.DefaultLocalName)
	}
	if d.HasNamespaceImport && d.NamespaceLocalName != "" {
		names = append(names, d.NamespaceLocalName)
	}
	for _, b := range d.Named {
		if b.ImportedName == "default" {
			continue // already covered by DefaultLocalName
		}
		names = append(names, b.LocalName)
	}
	return names
}

// IsRelative reports whether the import source points at a file rather than
// an external package.
func (d ImportDeclaration) IsRelative() bool {
	return len(d.Source) > 0 && (d.Source[0] == '.' || d.Source[0] == '/')
}

// ExportSet is the set of names a file exposes.
//
// Local-only mode answers "does this file define X" for namespace search.
// Forwarding-aware mode (see ForwardingExports) additionally includes names
// re-exported via `export { x } from './y'` and `export * as X from './y'`,
// answering "does this index already expose X" so existing forwards are
// never regenerated. Neither mode expands `export * from './y'`: that is
// unbounded without recursive resolution.
type ExportSet struct {
	// Named holds value exports.
	Named map[string]struct{}

	// Types holds type-only exports (interfaces, type aliases, and
	// specifiers marked with the type keyword).
	Types map[string]struct{}

	// HasDefault is true if the file has a default export.
	HasDefault bool
}

// NewExportSet returns an empty ExportSet with allocated maps.
func NewExportSet() ExportSet {
	return ExportSet{
		Named: make(map[string]struct{}),
		Types: make(map[string]struct{}),
	}
}

// Has reports whether the set exposes name as either a value or a type.
func (s ExportSet) Has(name string) bool {
	if name == "default" {
		return s.HasDefault
	}
	if _, ok := s.Named[name]; ok {
		return true
	}
	_, ok := s.Types[name]
	return ok
}

// HasType reports whether name is exposed as a type.
func (s ExportSet) HasType(name string) bool {
	_, ok := s.Types[name]
	return ok
}

// IsEmpty reports whether the set exposes nothing at all.
func (s ExportSet) IsEmpty() bool {
	return len(s.Named) == 0 && len(s.Types) == 0 && !s.HasDefault
}
