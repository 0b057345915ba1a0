// Package queries provides tree-sitter query compilation, caching, and execution.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries/imports"
)

// QueryType identifies which query to execute.
type QueryType int

const (
	// QueryTypeModules locates import and export statements for declaration
	// extraction.
	QueryTypeModules QueryType = iota
	// QueryTypeRefs locates file references (static import sources, dynamic
	// import() arguments, require() arguments, re-export sources) for the
	// cascade resolver.
	QueryTypeRefs
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeModules:
		return "modules"
	case QueryTypeRefs:
		return "refs"
	default:
		return "unknown"
	}
}

// queryKey uniquely identifies a compiled query (language + TSX variant + type).
// TSX is a distinct grammar, so queries must be compiled per variant.
type queryKey struct {
	lang  parser.Language
	isTSX bool
	qtype QueryType
}

// QueryManager manages tree-sitter query compilation and caching.
//
// Queries are compiled lazily on first use and cached; Close() frees them.
// Thread-safe via sync.RWMutex with double-checked locking.
type QueryManager struct {
	parserManager *parser.ParserManager
	cache         map[queryKey]*ts.Query
	mutex         sync.RWMutex
	logger        *slog.Logger
}

// NewQueryManager creates a new query manager.
//
// The parserManager is required to access language grammars for query
// compilation. Logger can be nil (uses slog.Default()).
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryManager{
		parserManager: pm,
		cache:         make(map[queryKey]*ts.Query),
		logger:        logger,
	}
}

// GetQuery returns a compiled query for the specified language and type,
// compiling and caching it on first access.
func (qm *QueryManager) GetQuery(lang parser.Language, qtype QueryType, isTSX bool) (*ts.Query, error) {
	key := queryKey{lang: lang, isTSX: isTSX, qtype: qtype}

	// Fast path: already compiled (read lock).
	qm.mutex.RLock()
	query, exists := qm.cache[key]
	qm.mutex.RUnlock()

	if exists {
		return query, nil
	}

	// Slow path: compile (write lock).
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	// Double-check: another goroutine may have compiled it.
	if query, exists = qm.cache[key]; exists {
		return query, nil
	}

	queryString, err := qm.getQueryString(lang, qtype)
	if err != nil {
		return nil, err
	}

	langPtr, err := qm.parserManager.GetLanguagePointer(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", lang, err)
	}

	tsLang := ts.NewLanguage(langPtr)

	query, qerr := ts.NewQuery(tsLang, queryString)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}

	qm.cache[key] = query

	qm.logger.Debug("compiled query",
		"language", lang.String(),
		"isTSX", isTSX,
		"type", qtype.String())

	return query, nil
}

// getQueryString returns the query source for a language and type.
func (qm *QueryManager) getQueryString(lang parser.Language, qtype QueryType) (string, error) {
	switch qtype {
	case QueryTypeModules:
		switch lang {
		case parser.LanguageJavaScript:
			return imports.JSModuleQueries, nil
		case parser.LanguageTypeScript:
			return imports.TSModuleQueries, nil
		}
	case QueryTypeRefs:
		switch lang {
		case parser.LanguageJavaScript:
			return imports.JSRefQueries, nil
		case parser.LanguageTypeScript:
			return imports.TSRefQueries, nil
		}
	}
	return "", fmt.Errorf("no %s query for language %s", qtype, lang)
}

// ExecuteQuery runs a compiled query on a parse tree and returns structured
// matches. The source is needed to extract matched text.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		var captures []QueryCapture
		for _, capture := range match.Captures {
			var captureName string
			if int(capture.Index) < len(captureNames) {
				captureName = captureNames[capture.Index]
			}

			category, field := parseCaptureName(captureName)

			captures = append(captures, QueryCapture{
				Name:     captureName,
				Category: category,
				Field:    field,
				Node:     &capture.Node,
				Text:     capture.Node.Utf8Text(source),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}

	return matches, nil
}

// Close releases all compiled queries. The manager is unusable afterwards.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qm.logger.Debug("closing QueryManager",
		"queries_compiled", len(qm.cache))

	for key, query := range qm.cache {
		if query != nil {
			query.Close()
		}
		delete(qm.cache, key)
	}

	return nil
}

// QueryMatch represents a single pattern match from query execution.
type QueryMatch struct {
	// PatternIndex identifies which query pattern matched
	PatternIndex uint32

	// Captures contains all captured nodes for this match
	Captures []QueryCapture
}

// QueryCapture represents a single captured node from a query match.
type QueryCapture struct {
	// Name is the full capture name (e.g., "module.import", "ref.dynamic")
	Name string

	// Category is the part before the first dot, Field the part after.
	Category string
	Field    string

	// Node is the captured AST node
	Node *ts.Node

	// Text is the source text of the captured node
	Text string
}

// parseCaptureName splits a capture name like "ref.dynamic" into
// ("ref", "dynamic"). Names without a dot yield (name, "").
func parseCaptureName(name string) (category, field string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return name, ""
}
