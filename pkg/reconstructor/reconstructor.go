package reconstructor

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/resolver"
	"github.com/gnana997/unbundle/pkg/source"
	"github.com/gnana997/unbundle/pkg/util"
)

// Reconstructor regenerates directory indexes over a file snapshot.
type Reconstructor struct {
	parserManager *parser.ParserManager
	analyzer      *analyzer.Analyzer
	cache         *resolver.AnalysisCache
	resolver      *resolver.Resolver
	logger        *slog.Logger
}

// New creates a reconstructor. Logger can be nil (uses slog.Default()).
func New(
	pm *parser.ParserManager,
	an *analyzer.Analyzer,
	cache *resolver.AnalysisCache,
	logger *slog.Logger,
) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{
		parserManager: pm,
		analyzer:      an,
		cache:         cache,
		resolver:      resolver.NewResolver(cache),
		logger:        logger,
	}
}

// ReconstructAll runs the four reconstruction phases over every directory:
//
//	Phase 1: collect per-directory symbol expectations from all imports.
//	Phase 2: diff against the existing index's forwarding-aware exports;
//	         skip satisfied directories and application entry points.
//	Phase 3: place each missing symbol — ring search first, export
//	         resolver (namespace / external re-export) as fallback.
//	Phase 4: emit the regenerated index, preserving existing content and
//	         listing unresolved symbols visibly.
//
// Failures degrade to warnings or visible comments; the pass itself never
// aborts.
func (r *Reconstructor) ReconstructAll(
	files []source.File,
	aliases []AliasMapping,
	obs util.Observer,
) Result {
	obs = util.EnsureObserver(obs)

	var result Result

	col := r.collectExpectations(files, aliases)
	l := newLayout(files)
	dirs := col.sortedDirs()

	for i, dir := range dirs {
		obs.Progress("reconstruct-indexes", i+1, len(dirs))

		idx, ok := r.reconstructDir(l, col, files, dir, obs, &result.Warnings)
		if !ok {
			continue
		}

		result.Indexes = append(result.Indexes, idx)
		result.TotalResolved += len(idx.Resolved)
		result.TotalUnresolved += len(idx.Unresolved)
	}

	r.logger.Info("index reconstruction complete",
		"indexes", len(result.Indexes),
		"resolved", result.TotalResolved,
		"unresolved", result.TotalUnresolved,
		"warnings", len(result.Warnings))

	return result
}

// reconstructDir runs phases 2-4 for one directory. Returns false when the
// directory needs nothing (already satisfied, or an entry point).
func (r *Reconstructor) reconstructDir(
	l *layout,
	col *collected,
	files []source.File,
	dir string,
	obs util.Observer,
	warnings *[]string,
) (RegeneratedIndex, bool) {
	exps := col.expectations[dir]

	existing, hasIndex := findIndex(l, dir)

	var existingContent string
	var existingSet extractor.ExportSet
	skipNames := make(map[string]struct{})

	if hasIndex {
		if r.isApplicationEntryPoint(existing) {
			// Entry points must never be overwritten.
			r.logger.Debug("skipping application entry point", "index", existing.Path)
			return RegeneratedIndex{}, false
		}
		existingContent = string(existing.Content)
		skipNames = previouslyUnresolved(existingContent)
		existingSet = r.cache.ForwardingExports(existing)
	} else {
		existingSet = extractor.NewExportSet()
	}

	missing := make([]string, 0, len(exps))
	for name := range exps {
		if name == "default" {
			if existingSet.HasDefault {
				continue
			}
		} else if existingSet.Has(name) {
			continue
		}
		if _, done := skipNames[name]; done {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return RegeneratedIndex{}, false
	}
	sort.Strings(missing)

	indexPath := existing.Path
	if !hasIndex {
		indexPath = path.Join(dir, indexFileName(l, dir))
	}

	// Phase 3: ring search, with the export resolver as fallback.
	var resolved []ResolvedSymbol
	var unresolved []UnresolvedSymbol
	var ringWarnings []string
	fallback := make(map[string]analyzer.AggregatedUsage)

	for _, name := range missing {
		if match, ok := r.searchSymbol(l, dir, name, indexPath, &ringWarnings); ok {
			resolved = append(resolved, ResolvedSymbol{
				Name:           name,
				SourcePath:     match.sourcePath,
				DefaultAsNamed: match.defaultAsNamed,
				IsTypeOnly:     exps[name].allTypeOnly || match.isType,
			})
			continue
		}
		if usage, ok := col.usage[dir][name]; ok {
			fallback[name] = usage
		} else {
			unresolved = append(unresolved, UnresolvedSymbol{
				Name:   name,
				Reason: resolver.ReasonNoDirectSource,
			})
		}
	}

	for _, w := range ringWarnings {
		obs.Warn(w)
	}
	*warnings = append(*warnings, ringWarnings...)

	if len(fallback) > 0 {
		res := r.resolver.ResolveMissingExports(files, fallback, col.importSource[dir], obs)
		*warnings = append(*warnings, res.Warnings...)
		for _, info := range res.Missing {
			if info.Resolution.Kind == resolver.ResolutionStub {
				unresolved = append(unresolved, UnresolvedSymbol{
					Name:   info.Name,
					Reason: info.Resolution.Reason,
				})
				continue
			}
			resolution := info.Resolution
			resolved = append(resolved, ResolvedSymbol{
				Name:       info.Name,
				IsTypeOnly: resolution.IsTypeOnly,
				Resolution: &resolution,
			})
		}
	}

	content := emitIndex(existingContent, dir, resolved, unresolved)

	return RegeneratedIndex{
		Dir:        dir,
		Path:       indexPath,
		Existed:    hasIndex,
		Content:    content,
		Resolved:   resolved,
		Unresolved: unresolved,
	}, true
}

// findIndex locates the directory's index file, preferring TypeScript.
func findIndex(l *layout, dir string) (source.File, bool) {
	for _, name := range []string{"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs"} {
		want := path.Join(dir, name)
		for _, f := range l.filesIn[dir] {
			if f.Path == want {
				return f, true
			}
		}
	}
	return source.File{}, false
}

// indexFileName picks the extension for a new index from the directory's
// contents: TypeScript wins when present.
func indexFileName(l *layout, dir string) string {
	for _, f := range l.filesIn[dir] {
		switch strings.ToLower(path.Ext(f.Path)) {
		case ".ts", ".tsx", ".mts", ".cts":
			return "index.ts"
		}
	}
	return "index.js"
}

// WriteIndexes writes every regenerated index back under root at its
// original relative location.
func WriteIndexes(root string, result Result) error {
	for _, idx := range result.Indexes {
		target := filepath.Join(root, filepath.FromSlash(idx.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", idx.Path, err)
		}
		if err := os.WriteFile(target, []byte(idx.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", idx.Path, err)
		}
	}
	return nil
}
