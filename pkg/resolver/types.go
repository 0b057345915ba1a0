// Package resolver decides what to do about one missing export name:
// synthesize a namespace re-export, forward an external dependency, or fall
// back to an explicit stub. It never guesses among ambiguous candidates and
// never fails a batch.
package resolver

// Pattern classifies how a missing symbol is used by its consumers.
type Pattern string

const (
	// PatternNamespace: at least one property access exists on the symbol.
	PatternNamespace Pattern = "namespace"
	// PatternDirect: called, constructed or used as an element, with zero
	// property accesses.
	PatternDirect Pattern = "direct"
	// PatternUnknown: imported but never observed in use.
	PatternUnknown Pattern = "unknown"
)

// ResolutionKind discriminates the Resolution variant.
type ResolutionKind int

const (
	// ResolutionNamespace re-exports a sibling file as a namespace:
	// import * as X from './file'; export { X };
	ResolutionNamespace ResolutionKind = iota
	// ResolutionReexport forwards the symbol from an external dependency:
	// export { X } from 'pkg';
	ResolutionReexport
	// ResolutionStub marks the symbol unresolvable; stub materialization
	// is a separate concern and no statement is generated here.
	ResolutionStub
)

// String returns the kind's name.
func (k ResolutionKind) String() string {
	switch k {
	case ResolutionNamespace:
		return "namespace"
	case ResolutionReexport:
		return "reexport"
	case ResolutionStub:
		return "stub"
	default:
		return "unknown"
	}
}

// Resolution is the outcome for one missing export. Exactly one variant
// applies, selected by Kind; fields of the other variants are zero.
type Resolution struct {
	Kind ResolutionKind

	// ExportName is the missing symbol, set for every variant.
	ExportName string

	// SourcePath (Namespace) is the tree-relative path of the file whose
	// exports superset all accessed properties.
	SourcePath string

	// DependencySource (Reexport) is the external package specifier.
	DependencySource string

	// IsTypeOnly (Reexport) is set only when every usage and every
	// tree-wide import occurrence of the symbol was type-only.
	IsTypeOnly bool

	// Reason (Stub) distinguishes why no real source could be located.
	Reason string
}

// Stub reasons. Kept as stable strings so the unresolved comment block in
// regenerated indexes stays byte-identical across runs.
const (
	ReasonPropertiesNotFound   = "namespace properties not found in any source file"
	ReasonNoDirectSource       = "no source found for direct usage"
	ReasonMultipleDependencies = "multiple external dependencies export this symbol"
)

// MissingExportInfo pairs a missing symbol with its classification and
// resolution. Returned as plain data to the orchestrating caller.
type MissingExportInfo struct {
	Name       string
	Pattern    Pattern
	Resolution Resolution

	// ConsumingFiles lists the files that expect the symbol, deduplicated
	// and sorted.
	ConsumingFiles []string
}
