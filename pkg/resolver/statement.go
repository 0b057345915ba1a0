package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnana997/unbundle/pkg/parser"
)

// Statement renders the synthesized source statement for a resolution.
//
// indexDir is the directory of the index file the statement will live in,
// relative to the tree root; the namespace import specifier is computed
// relative to it, not to the root. Stub resolutions produce no statement —
// stub materialization is a separate concern.
func Statement(res Resolution, indexDir string) string {
	switch res.Kind {
	case ResolutionNamespace:
		spec := RelativeSpecifier(res.SourcePath, indexDir)
		return fmt.Sprintf("import * as %s from '%s';\nexport { %s };",
			res.ExportName, spec, res.ExportName)

	case ResolutionReexport:
		if res.IsTypeOnly {
			return fmt.Sprintf("export type { %s } from '%s';",
				res.ExportName, res.DependencySource)
		}
		return fmt.Sprintf("export { %s } from '%s';",
			res.ExportName, res.DependencySource)

	default:
		return ""
	}
}

// RelativeSpecifier turns a tree-relative source path into a module
// specifier relative to the index directory: separators normalized, source
// extension stripped, ./-prefix ensured.
func RelativeSpecifier(sourcePath, indexDir string) string {
	p := sourcePath
	if indexDir != "" && indexDir != "." && sourcePath != "" {
		if rel, err := filepath.Rel(indexDir, sourcePath); err == nil {
			p = rel
		}
	}
	p = filepath.ToSlash(p)
	p = parser.StripSourceExtension(p)
	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
		p = "./" + p
	}
	return p
}
