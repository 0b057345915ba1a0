package resolver

import (
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/source"
)

// AnalysisCache memoizes per-file extraction results for one snapshot.
//
// A single run re-derives the same file's export set many times: the
// namespace search probes every file per missing symbol, and the ring
// search probes overlapping candidate sets per directory. Entries are keyed
// by path plus a content hash so a regenerated file (watch mode, repeated
// runs over the cache's lifetime) never serves a stale result.
type AnalysisCache struct {
	ex         *extractor.Extractor
	local      *lru.Cache[string, extractor.ExportSet]
	forwarding *lru.Cache[string, extractor.ExportSet]
	imports    *lru.Cache[string, []extractor.ImportDeclaration]
}

// DefaultCacheSize covers recovered trees up to ~8K files without eviction
// churn in any one pass.
const DefaultCacheSize = 8192

// NewAnalysisCache creates a cache around the given extractor.
// size <= 0 uses DefaultCacheSize.
func NewAnalysisCache(ex *extractor.Extractor, size int) (*AnalysisCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	local, err := lru.New[string, extractor.ExportSet](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create local export cache: %w", err)
	}
	forwarding, err := lru.New[string, extractor.ExportSet](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarding export cache: %w", err)
	}
	imports, err := lru.New[string, []extractor.ImportDeclaration](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create import cache: %w", err)
	}

	return &AnalysisCache{
		ex:         ex,
		local:      local,
		forwarding: forwarding,
		imports:    imports,
	}, nil
}

// cacheKey identifies a file by path and content.
func cacheKey(f source.File) string {
	h := fnv.New64a()
	_, _ = h.Write(f.Content)
	return fmt.Sprintf("%s#%x", f.Path, h.Sum64())
}

// LocalExports returns the file's local-only export set.
func (c *AnalysisCache) LocalExports(f source.File) extractor.ExportSet {
	key := cacheKey(f)
	if set, ok := c.local.Get(key); ok {
		return set
	}
	set := c.ex.LocalExports(f.Content, f.Path)
	c.local.Add(key, set)
	return set
}

// ForwardingExports returns the file's forwarding-aware export set.
func (c *AnalysisCache) ForwardingExports(f source.File) extractor.ExportSet {
	key := cacheKey(f)
	if set, ok := c.forwarding.Get(key); ok {
		return set
	}
	set := c.ex.ForwardingExports(f.Content, f.Path)
	c.forwarding.Add(key, set)
	return set
}

// Imports returns the file's import declarations.
func (c *AnalysisCache) Imports(f source.File) []extractor.ImportDeclaration {
	key := cacheKey(f)
	if decls, ok := c.imports.Get(key); ok {
		return decls
	}
	decls := c.ex.ExtractImports(f.Content, f.Path)
	c.imports.Add(key, decls)
	return decls
}
