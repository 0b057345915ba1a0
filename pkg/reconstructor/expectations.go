package reconstructor

import (
	"path"
	"sort"
	"strings"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/source"
)

// collected is the output of phase 1: per-directory symbol expectations
// plus per-directory aggregated usage for the export resolver fallback.
type collected struct {
	expectations map[string]dirExpectations

	// usage maps directory → symbol → aggregated usage across consumers,
	// fed to the export resolver when the ring search comes up empty.
	usage map[string]map[string]analyzer.AggregatedUsage

	// importSource remembers one specifier consumers used per directory,
	// for warning texts.
	importSource map[string]string
}

// collectExpectations walks every file's imports and usage, resolving each
// relative or alias-prefixed specifier to a target directory and recording,
// per directory, the expected symbol names with their consuming files and
// type-only status.
//
// Specifiers that resolve to an existing file are direct file imports and
// no index's concern. Namespace imports ("*") contribute usage but no
// expected name: they cannot name one specific missing export.
func (r *Reconstructor) collectExpectations(files []source.File, aliases []AliasMapping) *collected {
	byPath := source.ByPath(files)
	dirs := directorySet(files)

	out := &collected{
		expectations: make(map[string]dirExpectations),
		usage:        make(map[string]map[string]analyzer.AggregatedUsage),
		importSource: make(map[string]string),
	}

	// Per-directory raw usage rows, aggregated once per directory below.
	rows := make(map[string][]analyzer.ImportUsage)

	for _, f := range files {
		usages := r.analyzer.AnalyzeUsage(f.Content, f.Path)
		for _, u := range usages {
			targetDir, ok := resolveTargetDir(u.Source, f.Dir(), aliases, byPath, dirs)
			if !ok {
				continue
			}

			// Re-key the usage by target directory so aggregation can use
			// a single canonical source per directory.
			rekeyed := u
			rekeyed.Source = targetDir
			rows[targetDir] = append(rows[targetDir], rekeyed)
			if _, ok := out.importSource[targetDir]; !ok {
				out.importSource[targetDir] = u.Source
			}

			if u.ImportedName == "*" {
				continue
			}

			exps, ok := out.expectations[targetDir]
			if !ok {
				exps = make(dirExpectations)
				out.expectations[targetDir] = exps
			}
			exp, ok := exps[u.ImportedName]
			if !ok {
				exp = &expectation{
					consumingFiles: make(map[string]struct{}),
					allTypeOnly:    true,
				}
				exps[u.ImportedName] = exp
			}
			exp.consumingFiles[u.FilePath] = struct{}{}
			exp.allTypeOnly = exp.allTypeOnly && u.IsTypeOnly
		}
	}

	for dir, dirRows := range rows {
		out.usage[dir] = analyzer.Aggregate(dirRows, dir)
	}

	return out
}

// resolveTargetDir resolves an import specifier to a tree-relative target
// directory. Returns false when the specifier is external, escapes the
// tree, names an existing file (directly or with a source extension), or
// points at a directory the snapshot knows nothing about.
func resolveTargetDir(
	spec string,
	fromDir string,
	aliases []AliasMapping,
	byPath map[string]source.File,
	dirs map[string]struct{},
) (string, bool) {
	var target string

	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == "..":
		target = path.Join(fromDir, spec)
	case strings.HasPrefix(spec, "/"):
		target = path.Clean(strings.TrimPrefix(spec, "/"))
	default:
		alias, rest, ok := matchAlias(spec, aliases)
		if !ok {
			return "", false
		}
		target = path.Join(alias.Path, rest)
	}

	if target == ".." || strings.HasPrefix(target, "../") {
		return "", false // escapes the tree
	}
	target = path.Clean(target)

	// A direct file import is not an index's concern.
	if _, ok := byPath[target]; ok {
		return "", false
	}
	for _, ext := range sourceExtensions {
		if _, ok := byPath[target+ext]; ok {
			return "", false
		}
	}

	if _, ok := dirs[target]; !ok {
		return "", false
	}
	return target, true
}

// matchAlias finds the alias mapping whose prefix matches the specifier.
// Longest alias wins so "@app/x" beats "@" when both are configured.
func matchAlias(spec string, aliases []AliasMapping) (AliasMapping, string, bool) {
	var best AliasMapping
	bestLen := -1
	for _, a := range aliases {
		if a.Alias == "" {
			continue
		}
		if spec == a.Alias {
			if len(a.Alias) > bestLen {
				best, bestLen = a, len(a.Alias)
			}
			continue
		}
		if strings.HasPrefix(spec, a.Alias+"/") && len(a.Alias) > bestLen {
			best, bestLen = a, len(a.Alias)
		}
	}
	if bestLen < 0 {
		return AliasMapping{}, "", false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(spec, best.Alias), "/")
	return best, rest, true
}

// directorySet returns every directory (and ancestor) that holds files,
// tree-relative.
func directorySet(files []source.File) map[string]struct{} {
	dirs := make(map[string]struct{})
	for _, f := range files {
		d := f.Dir()
		for {
			dirs[d] = struct{}{}
			if d == "." || d == "/" || d == "" {
				break
			}
			d = path.Dir(d)
		}
	}
	return dirs
}

// sortedDirs returns the expectation directories in stable order.
func (c *collected) sortedDirs() []string {
	out := make([]string, 0, len(c.expectations))
	for d := range c.expectations {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// sourceExtensions is the resolution order for extensionless specifiers.
var sourceExtensions = []string{".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}
