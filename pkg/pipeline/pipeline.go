// Package pipeline wires the analysis stack together once so the CLI, the
// MCP server, and watch mode share identical construction.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
	"github.com/gnana997/unbundle/pkg/reconstructor"
	"github.com/gnana997/unbundle/pkg/resolver"
	"github.com/gnana997/unbundle/pkg/source"
	"github.com/gnana997/unbundle/pkg/util"
)

// Pipeline holds the shared analysis components. Safe for concurrent use;
// the parser manager pools parsers internally.
type Pipeline struct {
	FileCache     util.FileCache
	Parsers       *parser.ParserManager
	Queries       *queries.QueryManager
	Extractor     *extractor.Extractor
	Analyzer      *analyzer.Analyzer
	Cache         *resolver.AnalysisCache
	Resolver      *resolver.Resolver
	Reconstructor *reconstructor.Reconstructor
	Logger        *slog.Logger
}

// New builds the full stack. Logger can be nil (uses slog.Default()).
func New(logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fileCache := util.NewFileCache(nil)
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	ex := extractor.NewExtractor(pm, qm)
	an := analyzer.NewAnalyzer(pm, ex)

	cache, err := resolver.NewAnalysisCache(ex, resolver.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	return &Pipeline{
		FileCache:     fileCache,
		Parsers:       pm,
		Queries:       qm,
		Extractor:     ex,
		Analyzer:      an,
		Cache:         cache,
		Resolver:      resolver.NewResolver(cache),
		Reconstructor: reconstructor.New(pm, an, cache, logger),
		Logger:        logger,
	}, nil
}

// LoadTree reads a recovered tree snapshot through the shared file cache.
func (p *Pipeline) LoadTree(root string, cfg source.LoadConfig) ([]source.File, error) {
	if cfg.Logger == nil {
		cfg.Logger = p.Logger
	}
	return source.NewLoader(p.FileCache, cfg).Load(root)
}

// Close releases parsers, compiled queries, and mapped files.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.Queries.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.Parsers.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.FileCache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
