// Package reconstructor regenerates directory index files so that what
// consumers expect from a directory matches what its index exposes.
//
// It runs per directory over the whole tree with no shared mutable state
// besides the warnings it emits, and it degrades rather than fails: an
// unresolvable symbol becomes a visible comment, never a silent stub and
// never an error.
package reconstructor

import "github.com/gnana997/unbundle/pkg/resolver"

// AliasMapping maps a non-relative "virtual package" import prefix to a
// tree-relative directory. Supplied by bundler-config parsing upstream.
type AliasMapping struct {
	Alias string `yaml:"alias"`
	Path  string `yaml:"path"`
}

// ResolvedSymbol is one symbol the reconstructor managed to place.
type ResolvedSymbol struct {
	// Name is the exported symbol name.
	Name string

	// SourcePath is the providing file, relative to the tree root. Empty
	// when the symbol was placed by the export resolver instead of the
	// ring search (see Resolution).
	SourcePath string

	// DefaultAsNamed marks a basename match re-exported as
	// export { default as Name }.
	DefaultAsNamed bool

	// IsTypeOnly marks symbols whose every usage was type-only.
	IsTypeOnly bool

	// Resolution is set when the symbol fell through the ring search and
	// was placed by the export resolver (namespace or external re-export).
	Resolution *resolver.Resolution
}

// UnresolvedSymbol is a symbol no heuristic could place. It is emitted as a
// visible comment so a later compile fails with an attributable name.
type UnresolvedSymbol struct {
	Name   string
	Reason string
}

// RegeneratedIndex is the reconstruction outcome for one directory.
type RegeneratedIndex struct {
	// Dir is the directory, relative to the tree root ("." for the root).
	Dir string

	// Path is the index file's tree-relative path — the existing index, or
	// the one to create.
	Path string

	// Existed reports whether an index file was already present.
	Existed bool

	// Content is the full new index content: existing content preserved
	// verbatim plus the appended generated block.
	Content string

	Resolved   []ResolvedSymbol
	Unresolved []UnresolvedSymbol
}

// Result aggregates a whole-tree reconstruction pass.
type Result struct {
	// Indexes holds one entry per directory that needed regeneration,
	// sorted by directory.
	Indexes []RegeneratedIndex

	// TotalResolved and TotalUnresolved count symbols across all indexes.
	TotalResolved   int
	TotalUnresolved int

	// Warnings collects every ambiguity surfaced during the pass.
	Warnings []string
}

// expectation accumulates what consumers expect of one symbol in one
// directory during phase 1.
type expectation struct {
	consumingFiles map[string]struct{}
	allTypeOnly    bool
}

// dirExpectations maps symbol name to its expectation for one directory.
type dirExpectations map[string]*expectation
