package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
)

// Extractor extracts import declarations and export sets from source files.
//
// Extraction is pure: no logging, no shared mutable state, no I/O. A file
// that fails to parse contributes nothing — one malformed file among
// thousands of recovered files must never abort a batch, so parse failures
// surface as empty results, not errors.
type Extractor struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
}

// NewExtractor creates an extractor sharing the given parser and query
// managers.
func NewExtractor(pm *parser.ParserManager, qm *queries.QueryManager) *Extractor {
	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
	}
}

// ExtractImports returns every import declaration in the file.
// An unparseable or unsupported file yields an empty slice.
func (e *Extractor) ExtractImports(source []byte, filePath string) []ImportDeclaration {
	stmts, done := e.moduleStatements(source, filePath)
	if stmts == nil {
		return nil
	}
	defer done()

	var decls []ImportDeclaration
	for _, stmt := range stmts.imports {
		if decl := buildImportDeclaration(stmt, source); decl != nil {
			decls = append(decls, *decl)
		}
	}
	return decls
}

// LocalExports returns the export set a file defines itself, ignoring
// forwarded re-exports. Answers "does this file define X".
func (e *Extractor) LocalExports(source []byte, filePath string) ExportSet {
	return e.exports(source, filePath, false)
}

// ForwardingExports returns the export set a file exposes, including names
// forwarded via `export { x } from './y'` and `export * as X from './y'`.
// `export * from './y'` is never expanded in either mode.
func (e *Extractor) ForwardingExports(source []byte, filePath string) ExportSet {
	return e.exports(source, filePath, true)
}

func (e *Extractor) exports(source []byte, filePath string, forwarding bool) ExportSet {
	set := NewExportSet()

	stmts, done := e.moduleStatements(source, filePath)
	if stmts == nil {
		return set
	}
	defer done()

	for _, stmt := range stmts.exports {
		collectExports(stmt, source, &set, forwarding)
	}
	return set
}

// moduleStatements parses the file and collects import/export statement
// nodes via the cached modules query. The returned cleanup closes the tree;
// captured nodes are invalid after it runs. A nil result means the file
// contributed nothing.
func (e *Extractor) moduleStatements(source []byte, filePath string) (*statements, func()) {
	lang := parser.DetectLanguage(filePath)
	if lang == parser.LanguageUnknown {
		return nil, nil
	}
	isTSX := parser.IsTSXFile(filePath)

	tree, err := e.parserManager.Parse(source, lang, isTSX)
	if err != nil {
		return nil, nil
	}

	query, err := e.queryManager.GetQuery(lang, queries.QueryTypeModules, isTSX)
	if err != nil {
		tree.Close()
		return nil, nil
	}

	matches, err := e.queryManager.ExecuteQuery(tree, query, source)
	if err != nil {
		tree.Close()
		return nil, nil
	}

	stmts := &statements{}
	for _, match := range matches {
		for _, capture := range match.Captures {
			switch capture.Name {
			case "module.import":
				stmts.imports = append(stmts.imports, capture.Node)
			case "module.export":
				stmts.exports = append(stmts.exports, capture.Node)
			}
		}
	}

	return stmts, func() { tree.Close() }
}

type statements struct {
	imports []*ts.Node
	exports []*ts.Node
}
