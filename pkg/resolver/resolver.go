package resolver

import (
	"fmt"
	"sort"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/source"
	"github.com/gnana997/unbundle/pkg/util"
)

// Resolver resolves missing export names against a file snapshot.
//
// Stateless across calls apart from the per-snapshot AnalysisCache; safe to
// run per-directory with no shared mutable state besides the returned
// warnings.
type Resolver struct {
	cache *AnalysisCache
}

// NewResolver creates a resolver over the given analysis cache.
func NewResolver(cache *AnalysisCache) *Resolver {
	return &Resolver{cache: cache}
}

// Result carries the resolutions and the warnings emitted while deriving
// them. Warnings are the only side output: ambiguity is surfaced, never
// thrown and never silently swallowed.
type Result struct {
	Missing  []MissingExportInfo
	Warnings []string
}

// ResolveMissingExports resolves each missing symbol imported from
// importSource, using its aggregated usage.
//
// Per symbol, in order:
//  1. Classify the usage pattern.
//  2. Namespace usage: find the unique file whose local exports superset
//     every accessed property. Multiple equally valid files warn and fall
//     through — the resolver never picks among ambiguous candidates.
//  3. Any pattern: find the unique external package the symbol is imported
//     from anywhere in the tree. Two or more distinct packages warn and
//     fall through.
//  4. Otherwise an explicit stub with a reason.
//
// Namespace is deliberately checked before re-export: Foo.Bar usage is far
// more likely to be local aggregation than an external package's
// sub-property.
//
// The full symbol → resolution map is computed in a single pass and the
// result list is projected from it once, sorted by name for deterministic
// output.
func (r *Resolver) ResolveMissingExports(
	files []source.File,
	missing map[string]analyzer.AggregatedUsage,
	importSource string,
	obs util.Observer,
) Result {
	obs = util.EnsureObserver(obs)

	var result Result

	names := make([]string, 0, len(missing))
	for name := range missing {
		if name == "*" {
			// A namespace import cannot name one specific missing export;
			// it must never reach resolution.
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		obs.Progress("resolve-exports", i+1, len(names))

		usage := missing[name]
		info := r.resolveOne(files, name, usage, importSource, &result.Warnings)
		result.Missing = append(result.Missing, info)
	}

	for _, w := range result.Warnings {
		obs.Warn(w)
	}

	return result
}

func (r *Resolver) resolveOne(
	files []source.File,
	name string,
	usage analyzer.AggregatedUsage,
	importSource string,
	warnings *[]string,
) MissingExportInfo {
	info := MissingExportInfo{
		Name:           name,
		Pattern:        classifyPattern(usage),
		ConsumingFiles: usage.ConsumingFiles,
	}

	// Step 2: namespace superset search.
	if info.Pattern == PatternNamespace {
		if res, ok := r.resolveNamespace(files, name, usage, importSource, warnings); ok {
			info.Resolution = res
			return info
		}
	}

	// Step 3: unique external dependency.
	if res, reason, ok := r.resolveReexport(files, name, usage, warnings); ok {
		info.Resolution = res
		return info
	} else if reason != "" {
		info.Resolution = stub(name, reason)
		return info
	}

	// Step 4: explicit stub.
	if info.Pattern == PatternNamespace {
		info.Resolution = stub(name, ReasonPropertiesNotFound)
	} else {
		info.Resolution = stub(name, ReasonNoDirectSource)
	}
	return info
}

// classifyPattern derives the usage pattern: namespace wins whenever any
// property access exists, direct requires a call/element/construction with
// zero accesses, unknown means imported but unobserved.
func classifyPattern(usage analyzer.AggregatedUsage) Pattern {
	if usage.IsUsedAsNamespace {
		return PatternNamespace
	}
	if usage.CalledDirectly || usage.UsedAsElement || usage.Constructed {
		return PatternDirect
	}
	return PatternUnknown
}

// resolveNamespace searches every file for one whose local export set
// supersets all accessed properties.
func (r *Resolver) resolveNamespace(
	files []source.File,
	name string,
	usage analyzer.AggregatedUsage,
	importSource string,
	warnings *[]string,
) (Resolution, bool) {
	props := usage.AllProperties()
	if len(props) == 0 {
		return Resolution{}, false
	}

	var matches []string
	for _, f := range files {
		if !parser.IsSourceFile(f.Path) {
			continue
		}
		set := r.cache.LocalExports(f)
		if supersets(set, props) {
			matches = append(matches, f.Path)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{
			Kind:       ResolutionNamespace,
			ExportName: name,
			SourcePath: matches[0],
		}, true
	default:
		sort.Strings(matches)
		*warnings = append(*warnings, fmt.Sprintf(
			"ambiguous namespace source for %q (imported from %q): %d candidate files match all accessed properties: %v",
			name, importSource, len(matches), matches))
		return Resolution{}, false
	}
}

// resolveReexport searches every file's imports for the missing name coming
// from an external (non-relative) source. A unique external source
// resolves; multiple distinct sources warn and return the multiple-deps
// stub reason.
func (r *Resolver) resolveReexport(
	files []source.File,
	name string,
	usage analyzer.AggregatedUsage,
	warnings *[]string,
) (res Resolution, stubReason string, ok bool) {
	sources := make(map[string]struct{})
	allTypeOnly := true

	for _, f := range files {
		for _, decl := range r.cache.Imports(f) {
			if decl.IsRelative() || decl.IsSideEffect {
				continue
			}
			for _, b := range decl.Named {
				if b.ImportedName != name {
					continue
				}
				sources[decl.Source] = struct{}{}
				if !b.IsTypeOnly {
					allTypeOnly = false
				}
			}
		}
	}

	switch len(sources) {
	case 0:
		return Resolution{}, "", false
	case 1:
		var dep string
		for s := range sources {
			dep = s
		}
		return Resolution{
			Kind:             ResolutionReexport,
			ExportName:       name,
			DependencySource: dep,
			IsTypeOnly:       allTypeOnly && usage.AllTypeOnly,
		}, "", true
	default:
		list := make([]string, 0, len(sources))
		for s := range sources {
			list = append(list, s)
		}
		sort.Strings(list)
		*warnings = append(*warnings, fmt.Sprintf(
			"symbol %q is imported from multiple external dependencies, refusing to pick one: %v",
			name, list))
		return Resolution{}, ReasonMultipleDependencies, false
	}
}

func supersets(set extractor.ExportSet, props []string) bool {
	for _, p := range props {
		if !set.Has(p) {
			return false
		}
	}
	return true
}

func stub(name, reason string) Resolution {
	return Resolution{
		Kind:       ResolutionStub,
		ExportName: name,
		Reason:     reason,
	}
}
