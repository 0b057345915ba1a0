package reconstructor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gnana997/unbundle/pkg/resolver"
)

// Markers for the generated block. Kept stable: the unresolved lines are
// parsed back on the next run so reconstruction is idempotent over its own
// output.
const (
	generatedHeader  = "// === generated re-exports (reconstructed from consumer usage) ==="
	unresolvedPrefix = "// unresolved: "
)

// emitIndex renders the regenerated index content: existing content
// preserved verbatim, then the generated block grouping new re-exports by
// source file, then a visible comment block listing unresolved symbols.
func emitIndex(existing string, dir string, resolved []ResolvedSymbol, unresolved []UnresolvedSymbol) string {
	var b strings.Builder

	if existing != "" {
		b.WriteString(existing)
		if !strings.HasSuffix(existing, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(generatedHeader)
	b.WriteString("\n")

	// Ring-search placements grouped per source file, resolver placements
	// rendered through resolver.Statement.
	writeGroupedReexports(&b, dir, resolved)

	for _, stmt := range resolverStatements(dir, resolved) {
		b.WriteString(stmt)
		b.WriteString("\n")
	}

	if len(unresolved) > 0 {
		sorted := append([]UnresolvedSymbol(nil), unresolved...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, u := range sorted {
			b.WriteString(fmt.Sprintf("%s%s (%s)\n", unresolvedPrefix, u.Name, u.Reason))
		}
	}

	return b.String()
}

// statementGroup buckets symbols from one source file into the four
// re-export statement shapes.
type statementGroup struct {
	named              []string
	defaultAsNamed     []string
	typeNamed          []string
	typeDefaultAsNamed []string
}

// writeGroupedReexports renders ring-search placements: one statement per
// shape per source file, symbols sorted alphabetically per statement,
// source files sorted for byte-identical output across runs.
func writeGroupedReexports(b *strings.Builder, dir string, resolved []ResolvedSymbol) {
	groups := make(map[string]*statementGroup)
	for _, sym := range resolved {
		if sym.Resolution != nil || sym.SourcePath == "" {
			continue
		}
		g, ok := groups[sym.SourcePath]
		if !ok {
			g = &statementGroup{}
			groups[sym.SourcePath] = g
		}
		switch {
		case sym.IsTypeOnly && sym.DefaultAsNamed:
			g.typeDefaultAsNamed = append(g.typeDefaultAsNamed, sym.Name)
		case sym.IsTypeOnly:
			g.typeNamed = append(g.typeNamed, sym.Name)
		case sym.DefaultAsNamed:
			g.defaultAsNamed = append(g.defaultAsNamed, sym.Name)
		default:
			g.named = append(g.named, sym.Name)
		}
	}

	sources := make([]string, 0, len(groups))
	for s := range groups {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	for _, src := range sources {
		g := groups[src]
		spec := resolver.RelativeSpecifier(src, dir)

		if len(g.named) > 0 {
			sort.Strings(g.named)
			fmt.Fprintf(b, "export { %s } from '%s';\n", strings.Join(g.named, ", "), spec)
		}
		if len(g.defaultAsNamed) > 0 {
			sort.Strings(g.defaultAsNamed)
			for _, name := range g.defaultAsNamed {
				fmt.Fprintf(b, "export { default as %s } from '%s';\n", name, spec)
			}
		}
		if len(g.typeNamed) > 0 {
			sort.Strings(g.typeNamed)
			fmt.Fprintf(b, "export type { %s } from '%s';\n", strings.Join(g.typeNamed, ", "), spec)
		}
		if len(g.typeDefaultAsNamed) > 0 {
			sort.Strings(g.typeDefaultAsNamed)
			for _, name := range g.typeDefaultAsNamed {
				fmt.Fprintf(b, "export type { default as %s } from '%s';\n", name, spec)
			}
		}
	}
}

// resolverStatements renders export-resolver placements, sorted by symbol.
func resolverStatements(dir string, resolved []ResolvedSymbol) []string {
	var withRes []ResolvedSymbol
	for _, sym := range resolved {
		if sym.Resolution != nil {
			withRes = append(withRes, sym)
		}
	}
	sort.Slice(withRes, func(i, j int) bool { return withRes[i].Name < withRes[j].Name })

	var stmts []string
	for _, sym := range withRes {
		if stmt := resolver.Statement(*sym.Resolution, dir); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// previouslyUnresolved parses the unresolved comment lines out of an
// existing index so a second run does not re-attempt (and re-append) them.
func previouslyUnresolved(content string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, unresolvedPrefix) {
			continue
		}
		rest := strings.TrimPrefix(trimmed, unresolvedPrefix)
		if idx := strings.Index(rest, " ("); idx > 0 {
			rest = rest[:idx]
		}
		if rest != "" {
			out[rest] = struct{}{}
		}
	}
	return out
}
