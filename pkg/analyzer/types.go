// Package analyzer classifies how imported bindings are used inside
// recovered files and aggregates those observations per symbol.
//
// The classification is deliberately shallow: a property-access chain rooted
// at a binding contributes only its first segment. The export resolver needs
// "what is accessed directly on the symbol", not the full path.
package analyzer

// ImportUsage describes how one local binding from one file's imports is
// used within that file.
type ImportUsage struct {
	// FilePath is the consuming file.
	FilePath string

	// LocalName is the binding as visible in the file (alias applied).
	LocalName string

	// ImportedName is the name declared by the source module; "default"
	// for default imports, "*" for namespace imports.
	ImportedName string

	// Source is the module specifier the binding was imported from.
	Source string

	// AccessedProperties holds first-level property names accessed on the
	// binding in plain expressions: Foo.Bar, Foo.Bar.Baz both contribute
	// only "Bar".
	AccessedProperties map[string]struct{}

	// ElementProperties holds first-level member names used as markup
	// elements: <Foo.Bar/> contributes "Bar". Tracked separately from
	// AccessedProperties under the same truncation rule.
	ElementProperties map[string]struct{}

	// CalledDirectly is set by a call whose callee is exactly the bare
	// binding: Foo().
	CalledDirectly bool

	// UsedAsElement is set by a markup element whose tag is exactly the
	// bare binding: <Foo/>.
	UsedAsElement bool

	// Constructed is set by a construction whose callee is the bare
	// binding: new Foo().
	Constructed bool

	// IsTypeOnly records whether the importing specifier was type-only.
	IsTypeOnly bool
}

// AggregatedUsage merges ImportUsage entries for one symbol name across all
// consuming files.
type AggregatedUsage struct {
	// Name is the symbol name at the source module.
	Name string

	// AccessedProperties is the union of plain property accesses.
	AccessedProperties map[string]struct{}

	// ElementProperties is the union of markup-element member accesses.
	ElementProperties map[string]struct{}

	// CalledDirectly, UsedAsElement and Constructed are OR'd across files.
	CalledDirectly bool
	UsedAsElement  bool
	Constructed    bool

	// ConsumingFiles lists each file importing the symbol, deduplicated.
	ConsumingFiles []string

	// IsUsedAsNamespace is true iff any property set is non-empty.
	IsUsedAsNamespace bool

	// AllTypeOnly is true iff every usage of the symbol, across the whole
	// tree, was type-only. Only then may a synthesized re-export carry a
	// type-only marker.
	AllTypeOnly bool
}

// AllProperties returns the union of plain and element property accesses.
func (a AggregatedUsage) AllProperties() []string {
	seen := make(map[string]struct{}, len(a.AccessedProperties)+len(a.ElementProperties))
	var props []string
	for p := range a.AccessedProperties {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			props = append(props, p)
		}
	}
	for p := range a.ElementProperties {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			props = append(props, p)
		}
	}
	return props
}
